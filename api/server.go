// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// Package api exposes a *counter.Counter over HTTP: POST /add/<domain> to
// record a hit, GET /top/<n> and /counts/<n> to read the current ranking,
// plus /healthz and /metrics for operational use. It follows the same
// Server-interface-plus-Run shape as the monitor package's debug server.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aristanetworks/glog"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aristanetworks/tophits/async"
	"github.com/aristanetworks/tophits/cluster"
	"github.com/aristanetworks/tophits/counter"
	"github.com/aristanetworks/tophits/domain"
	"github.com/aristanetworks/tophits/errs"
	"github.com/aristanetworks/tophits/metrics"
)

// Server represents the tophits HTTP server.
type Server interface {
	Run()
}

// ops abstracts over the way a request is actually served: directly against
// a *counter.Counter, or through an *async.Adapter's worker pool. The HTTP
// handlers don't need to know which.
type ops interface {
	Add(ctx context.Context, d string) error
	Top(ctx context.Context, n int) ([]string, error)
	TopCount(ctx context.Context, n int) ([]counter.Hit, error)
}

type directOps struct {
	counter *counter.Counter
}

func (o directOps) Add(ctx context.Context, d string) error {
	o.counter.Add(d)
	return nil
}

func (o directOps) Top(ctx context.Context, n int) ([]string, error) {
	return o.counter.Top(n)
}

func (o directOps) TopCount(ctx context.Context, n int) ([]counter.Hit, error) {
	return o.counter.TopCount(n)
}

type asyncOps struct {
	adapter *async.Adapter
}

func (o asyncOps) Add(ctx context.Context, d string) error {
	f, err := o.adapter.Add(d)
	if err != nil {
		return err
	}
	_, err = f.Wait(ctx)
	return err
}

func (o asyncOps) Top(ctx context.Context, n int) ([]string, error) {
	f, err := o.adapter.Top(n)
	if err != nil {
		return nil, err
	}
	return f.Wait(ctx)
}

func (o asyncOps) TopCount(ctx context.Context, n int) ([]counter.Hit, error) {
	f, err := o.adapter.TopCount(n)
	if err != nil {
		return nil, err
	}
	return f.Wait(ctx)
}

type server struct {
	addr string
	ops  ops
	// counter is always the raw, synchronous view, independent of whether
	// ops routes through the async adapter. It backs /internal/counts,
	// the endpoint peers fetch from each other during a cluster merge, so
	// that fetch never itself recurses into a merge.
	counter *counter.Counter
	merger  *cluster.Merger
}

// New creates a Server that answers on addr and reads/writes c directly.
// merger may be nil, in which case /top and /counts answer from c alone.
func New(addr string, c *counter.Counter, merger *cluster.Merger) Server {
	return &server{addr: addr, ops: directOps{counter: c}, counter: c, merger: merger}
}

// NewAsync creates a Server like New, but routes Add/Top/TopCount through
// a, the async worker pool adapter, instead of calling c directly. c is
// still used for /internal/counts and as the merger's local source, both of
// which want a synchronous read rather than a queued one.
func NewAsync(addr string, c *counter.Counter, a *async.Adapter, merger *cluster.Merger) Server {
	return &server{addr: addr, ops: asyncOps{adapter: a}, counter: c, merger: merger}
}

// Run starts the HTTP server. It blocks until the listener fails.
func (s *server) Run() {
	mux := http.NewServeMux()
	mux.HandleFunc("/add/", s.handleAdd)
	mux.HandleFunc("/top/", s.handleTop)
	mux.HandleFunc("/counts/", s.handleCounts)
	mux.HandleFunc("/internal/counts/", s.handleLocalCounts)
	mux.HandleFunc("/healthz", handleHealthz)
	mux.Handle("/metrics", promhttp.Handler())

	glog.Infof("tophits: api server listening on %s", s.addr)
	if err := http.ListenAndServe(s.addr, mux); err != nil {
		glog.Errorf("tophits: api server exited: %v", err)
	}
}

func (s *server) handleAdd(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, errs.NewInvalidArgument("method must be POST"))
		return
	}
	raw := strings.TrimPrefix(r.URL.Path, "/add/")
	d, err := domain.FromURL(raw)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.ops.Add(r.Context(), d); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleTop answers the cluster-wide top-n domain names, merging across
// peers when a Merger is configured.
func (s *server) handleTop(w http.ResponseWriter, r *http.Request) {
	defer observeQueryDuration(time.Now())

	n, err := parseN(r.URL.Path, "/top/")
	if err != nil {
		writeError(w, err)
		return
	}
	if s.merger != nil {
		hits, err := s.merger.TopCount(r.Context(), n)
		if err != nil {
			writeError(w, err)
			return
		}
		domains := make([]string, len(hits))
		for i, h := range hits {
			domains[i] = h.Domain
		}
		writeJSON(w, domains)
		return
	}
	domains, err := s.ops.Top(r.Context(), n)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, domains)
}

// handleCounts answers the cluster-wide top-n (domain, count) pairs, merging
// across peers when a Merger is configured. This is the public endpoint;
// peers fetch each other's local-only view through /internal/counts instead,
// so a merge never recurses into another merge.
func (s *server) handleCounts(w http.ResponseWriter, r *http.Request) {
	defer observeQueryDuration(time.Now())

	n, err := parseN(r.URL.Path, "/counts/")
	if err != nil {
		writeError(w, err)
		return
	}
	if s.merger != nil {
		hits, err := s.merger.TopCount(r.Context(), n)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, hits)
		return
	}
	hits, err := s.ops.TopCount(r.Context(), n)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, hits)
}

// handleLocalCounts answers this node's own counts only, bypassing both the
// async adapter and any Merger. It's what cluster.HTTPFetcher calls on a peer.
func (s *server) handleLocalCounts(w http.ResponseWriter, r *http.Request) {
	n, err := parseN(r.URL.Path, "/internal/counts/")
	if err != nil {
		writeError(w, err)
		return
	}
	hits, err := s.counter.TopCount(n)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, hits)
}

func observeQueryDuration(start time.Time) {
	metrics.TopQueryDuration.Observe(time.Since(start).Seconds())
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

func parseN(path, prefix string) (int, error) {
	raw := strings.TrimPrefix(path, prefix)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errs.NewInvalidArgument("n must be an integer: " + raw)
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		glog.Errorf("tophits: failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := errs.StatusFor(err)
	http.Error(w, err.Error(), status)
}
