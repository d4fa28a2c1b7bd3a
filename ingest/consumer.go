// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// Package ingest feeds domain hits from a Kafka topic into an
// async.Adapter, following the same start/run/stop goroutine shape as the
// producer side of this codebase family: a dedicated goroutine drives the
// consumer group's Consume loop, a second watches for async errors, and
// Stop tears both down through a done channel plus a WaitGroup.
package ingest

import (
	"context"
	"sync"

	"github.com/Shopify/sarama"

	"github.com/aristanetworks/glog"
	"github.com/aristanetworks/tophits/async"
	"github.com/aristanetworks/tophits/domain"
	"github.com/aristanetworks/tophits/kafka"
)

// Consumer ingests hits from Kafka and forwards them to an async.Adapter.
type Consumer struct {
	client  sarama.Client
	group   sarama.ConsumerGroup
	topics  []string
	adapter *async.Adapter
	done    chan struct{}
	wg      sync.WaitGroup
}

// New creates a Consumer reading topics off the brokers at addresses,
// forwarding every message's value (interpreted as a raw domain/URL) to
// adapter.Add.
func New(addresses []string, groupID string, topics []string, adapter *async.Adapter) (*Consumer, error) {
	client, err := kafka.NewClient(addresses)
	if err != nil {
		return nil, err
	}

	group, err := sarama.NewConsumerGroupFromClient(groupID, client)
	if err != nil {
		client.Close()
		return nil, err
	}

	return &Consumer{
		client:  client,
		group:   group,
		topics:  topics,
		adapter: adapter,
		done:    make(chan struct{}),
	}, nil
}

// Start begins consuming. It is non-blocking.
func (c *Consumer) Start() {
	c.wg.Add(2)
	go c.run()
	go c.handleErrors()
}

func (c *Consumer) run() {
	defer c.wg.Done()
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-c.done
		cancel()
	}()
	for {
		if err := c.group.Consume(ctx, c.topics, c); err != nil {
			if err == sarama.ErrClosedConsumerGroup {
				return
			}
			glog.Errorf("tophits: consumer group error: %v", err)
		}
		select {
		case <-c.done:
			return
		default:
		}
	}
}

func (c *Consumer) handleErrors() {
	defer c.wg.Done()
	for err := range c.group.Errors() {
		glog.Errorf("tophits: kafka consumer error: %v", err)
	}
}

// Stop shuts down the consumer group and waits for its goroutines to exit.
func (c *Consumer) Stop() {
	close(c.done)
	c.group.Close()
	c.wg.Wait()
	c.client.Close()
}

// Setup implements sarama.ConsumerGroupHandler.
func (c *Consumer) Setup(sarama.ConsumerGroupSession) error { return nil }

// Cleanup implements sarama.ConsumerGroupHandler.
func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim implements sarama.ConsumerGroupHandler. It parses each
// message's value as a domain/URL and submits it to the adapter.
func (c *Consumer) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		d, err := domain.FromURL(string(msg.Value))
		if err != nil {
			glog.V(2).Infof("tophits: dropping unparseable message: %v", err)
			sess.MarkMessage(msg, "")
			continue
		}
		if _, err := c.adapter.Add(d); err != nil {
			glog.Errorf("tophits: failed to submit ingested domain %s: %v", d, err)
		}
		sess.MarkMessage(msg, "")
	}
	return nil
}
