// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// The tophitsd binary serves a ranked, always-current view of the most
// frequently seen domains, fed either over its HTTP API or from a Kafka
// topic, and shardable across a cluster via consistent hashing.
package main

import (
	"context"
	"flag"
	"io/ioutil"
	"strings"

	"github.com/aristanetworks/glog"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aristanetworks/tophits/api"
	"github.com/aristanetworks/tophits/async"
	"github.com/aristanetworks/tophits/cluster"
	"github.com/aristanetworks/tophits/config"
	"github.com/aristanetworks/tophits/counter"
	"github.com/aristanetworks/tophits/ingest"
	"github.com/aristanetworks/tophits/logger"
	"github.com/aristanetworks/tophits/metrics"
	"github.com/aristanetworks/tophits/monitor"
	"github.com/aristanetworks/tophits/registry"
	"github.com/aristanetworks/tophits/topology"
)

var (
	configFlag = flag.String("config", "", "Path to the tophitsd YAML config file")
	debugAddr  = flag.String("debugaddr", "", "If set, serve /debug/vars and /debug/pprof on this address")
	asyncFlag  = flag.Bool("async", true, "Serve the HTTP API's Add/Top/Counts requests through the async worker pool adapter instead of calling the counter directly")
)

func main() {
	flag.Parse()
	if *configFlag == "" {
		glog.Fatal("tophitsd: -config is required")
	}
	raw, err := ioutil.ReadFile(*configFlag)
	if err != nil {
		glog.Fatalf("tophitsd: can't read config file %q: %v", *configFlag, err)
	}
	cfg, err := config.Parse(raw)
	if err != nil {
		glog.Fatalf("tophitsd: %v", err)
	}

	c := counter.New()

	var log logger.Logger
	prometheus.MustRegister(metrics.NewCollector(c), metrics.TopQueryDuration)

	if *debugAddr != "" {
		go monitor.NewMonitorServer(*debugAddr).Run()
	}

	var peerReg *registry.Registry
	if cfg.RedisAddr != "" {
		peerReg = registry.New(cfg.RedisAddr, "")
		if err := peerReg.Join(cfg.ListenAddr); err != nil {
			glog.Errorf("tophitsd: failed to join peer registry: %v", err)
		}
		defer peerReg.Leave(cfg.ListenAddr)
	}

	router := topology.New(append([]string{cfg.Shard}, shardNamesFromPeers(cfg.Peers)...))
	glog.Infof("tophitsd: shard %s joined ring with members %v", cfg.Shard, router.Shards())

	merger := newMerger(c, cfg, peerReg)

	var adapter *async.Adapter
	if *asyncFlag {
		adapter = async.New(c, cfg.AsyncQueueSize, log)
		defer adapter.Stop()
	}

	if len(cfg.KafkaBrokers) > 0 {
		if adapter == nil {
			glog.Fatal("tophitsd: kafka ingestion requires -async")
		}
		consumer, err := ingest.New(cfg.KafkaBrokers, "tophits-"+cfg.Shard, []string{cfg.KafkaTopic}, adapter)
		if err != nil {
			glog.Fatalf("tophitsd: failed to start kafka consumer: %v", err)
		}
		consumer.Start()
		defer consumer.Stop()
	}

	var srv api.Server
	if adapter != nil {
		srv = api.NewAsync(cfg.ListenAddr, c, adapter, merger)
	} else {
		srv = api.New(cfg.ListenAddr, c, merger)
	}
	srv.Run()
}

// newMerger builds the cluster.Merger api consults for /top and /counts, or
// nil if this node has no peers (static config list or peer registry),
// in which case those endpoints simply answer from c alone.
func newMerger(c *counter.Counter, cfg *config.Config, peerReg *registry.Registry) *cluster.Merger {
	static := shardNamesFromPeers(cfg.Peers)
	if peerReg == nil && len(static) == 0 {
		return nil
	}

	local := func(ctx context.Context, n int) ([]counter.Hit, error) {
		return c.TopCount(n)
	}
	peers := func() ([]string, error) {
		if peerReg == nil {
			return static, nil
		}
		all, err := peerReg.Peers()
		if err != nil {
			return nil, err
		}
		out := make([]string, 0, len(all))
		for _, p := range all {
			if p != cfg.ListenAddr {
				out = append(out, p)
			}
		}
		return out, nil
	}
	return cluster.NewMerger(local, peers, nil)
}

// shardNamesFromPeers returns every non-blank peer address, trimmed of
// surrounding whitespace. The address itself doubles as the peer's shard
// name, which keeps the topology consistent with the HTTP peers used by the
// cluster merge; no separate "name@addr" form is parsed.
func shardNamesFromPeers(peers []string) []string {
	out := make([]string, 0, len(peers))
	for _, p := range peers {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
