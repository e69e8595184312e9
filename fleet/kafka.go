// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package fleet

import (
	"context"
	"encoding/json"
	"time"

	"github.com/llmbench/llmbench/internal"
	"github.com/llmbench/llmbench/store"
	"github.com/segmentio/kafka-go"
)

// kafkaEvent is the wire shape published for every progress event of §6: "started{test_id}",
// "completed{test_id, status, duration_ms}", "finished{summary}". Kind distinguishes the three;
// unused fields for a given Kind are omitted.
type kafkaEvent struct {
	Kind       string              `json:"kind"`
	TestID     string              `json:"test_id,omitempty"`
	Status     store.Status        `json:"status,omitempty"`
	DurationMs int64               `json:"duration_ms,omitempty"`
	Summary    *store.ResultSummary `json:"summary,omitempty"`
}

// KafkaProgressSink publishes runner progress events to a Kafka topic in addition to whatever
// in-process consumer a fleet run also wires up, for fleets feeding a correlator-style event
// pipeline. Delivery is best-effort: a publish failure is logged, never returned, matching §6's
// "consumers dropping events does not affect the run".
type KafkaProgressSink struct {
	Writer *kafka.Writer
}

// NewKafkaProgressSink builds a sink that publishes to topic on the given brokers.
func NewKafkaProgressSink(brokers []string, topic string) *KafkaProgressSink {
	return &KafkaProgressSink{
		Writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

func (s *KafkaProgressSink) publish(ctx context.Context, key string, ev kafkaEvent) {
	b, err := json.Marshal(ev)
	if err != nil {
		internal.Logger(ctx).Error("fleet: marshaling kafka progress event", "err", err)
		return
	}
	if err := s.Writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: b}); err != nil {
		internal.Logger(ctx).Warn("fleet: publishing kafka progress event", "err", err)
	}
}

func (s *KafkaProgressSink) Started(testID string) {
	s.publish(context.Background(), testID, kafkaEvent{Kind: "started", TestID: testID})
}

func (s *KafkaProgressSink) Completed(testID string, status store.Status, durationMs int64) {
	s.publish(context.Background(), testID, kafkaEvent{Kind: "completed", TestID: testID, Status: status, DurationMs: durationMs})
}

func (s *KafkaProgressSink) Finished(summary store.ResultSummary) {
	s.publish(context.Background(), "", kafkaEvent{Kind: "finished", Summary: &summary})
}

// Close flushes and closes the underlying writer.
func (s *KafkaProgressSink) Close() error {
	return s.Writer.Close()
}
