// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// Package config parses tophitsd's YAML configuration file.
package config

import (
	"fmt"

	"gopkg.in/yaml.v2"
)

// Config is the representation of tophitsd's YAML config file.
type Config struct {
	// ListenAddr is the address the HTTP API listens on, e.g. ":8080".
	ListenAddr string `yaml:"listen-addr"`

	// Shard is this node's name in the consistent-hash ring.
	Shard string `yaml:"shard"`

	// Peers lists the other shards' HTTP addresses for cluster merges.
	Peers []string `yaml:"peers"`

	// KafkaBrokers, if non-empty, enables Kafka ingestion from these
	// broker addresses.
	KafkaBrokers []string `yaml:"kafka-brokers,omitempty"`

	// KafkaTopic is the topic to consume domain hits from.
	KafkaTopic string `yaml:"kafka-topic,omitempty"`

	// RedisAddr, if set, enables peer discovery through the registry
	// package instead of the static Peers list.
	RedisAddr string `yaml:"redis-addr,omitempty"`

	// AsyncQueueSize bounds the async adapter's pending submission queue;
	// 0 picks the adapter's default.
	AsyncQueueSize int `yaml:"async-queue-size,omitempty"`
}

// Parse parses raw as a tophitsd YAML config.
func Parse(raw []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %v", err)
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.Shard == "" {
		return nil, fmt.Errorf("config: shard name is required")
	}
	return cfg, nil
}
