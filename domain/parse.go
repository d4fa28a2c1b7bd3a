// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// Package domain extracts the registrable-ish host component that the
// counter tracks from a raw request string: a bare hostname, a host:port
// pair, or a full URL.
package domain

import (
	"net/url"
	"strings"

	"github.com/aristanetworks/tophits/errs"
)

// FromURL extracts the lowercased host from raw, which may be a bare
// hostname ("a.com"), a host:port pair ("a.com:443"), or a full URL
// ("https://a.com/path?q=1"). It returns an errs.KindInvalidArgument error
// if raw has no parseable host.
func FromURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errs.NewInvalidArgument("empty domain")
	}

	candidate := raw
	if !strings.Contains(candidate, "://") {
		candidate = "//" + candidate
	}

	u, err := url.Parse(candidate)
	if err != nil {
		return "", errs.NewInvalidArgument("malformed domain: " + raw)
	}

	host := u.Hostname()
	if host == "" {
		return "", errs.NewInvalidArgument("no host in: " + raw)
	}
	return strings.ToLower(host), nil
}
