// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// Package registry tracks which tophits nodes are currently up, backed by a
// Redis set so that every node in a cluster can discover its peers without
// a separate coordination service.
package registry

import (
	"gopkg.in/redis.v4"

	"github.com/aristanetworks/tophits/errs"
)

const peerSetKey = "tophits:peers"

// Registry is a Redis-backed set of peer addresses (host:port).
type Registry struct {
	client *redis.Client
}

// New connects to the Redis instance at addr (host:port).
func New(addr, password string) *Registry {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	return &Registry{client: client}
}

// Join adds self to the peer set.
func (r *Registry) Join(self string) error {
	if err := r.client.SAdd(peerSetKey, self).Err(); err != nil {
		return errs.NewNotFound("failed to join registry: " + err.Error())
	}
	return nil
}

// Leave removes self from the peer set.
func (r *Registry) Leave(self string) error {
	if err := r.client.SRem(peerSetKey, self).Err(); err != nil {
		return errs.NewNotFound("failed to leave registry: " + err.Error())
	}
	return nil
}

// Peers returns every address currently registered, including self.
func (r *Registry) Peers() ([]string, error) {
	members, err := r.client.SMembers(peerSetKey).Result()
	if err != nil {
		return nil, errs.NewNotFound("failed to list peers: " + err.Error())
	}
	return members, nil
}

// Close releases the underlying Redis connection.
func (r *Registry) Close() error {
	return r.client.Close()
}
