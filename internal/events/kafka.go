package events

import (
	"context"
	"encoding/json"

	"trailerhub-backend/internal/logger"

	"github.com/IBM/sarama"
)

type Producer struct {
	sync sarama.SyncProducer
}

func NewProducer(brokers []string, clientID string) (*Producer, error) {
	cfg := sarama.NewConfig()
	if clientID != "" {
		cfg.ClientID = clientID
	}
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Idempotent = true
	cfg.Producer.Return.Successes = true
	cfg.Net.MaxOpenRequests = 1
	sync, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	return NewProducerFrom(sync), nil
}

// NewProducerFrom wraps an existing sync producer.
func NewProducerFrom(sync sarama.SyncProducer) *Producer {
	return &Producer{sync: sync}
}

func (p *Producer) Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error {
	var hs []sarama.RecordHeader
	for k, v := range headers {
		hs = append(hs, sarama.RecordHeader{Key: []byte(k), Value: []byte(v)})
	}
	msg := &sarama.ProducerMessage{
		Topic:   topic,
		Key:     sarama.StringEncoder(key),
		Value:   sarama.ByteEncoder(payload),
		Headers: hs,
	}
	_, _, err := p.sync.SendMessage(msg)
	return err
}

func (p *Producer) Close() error {
	if p.sync == nil {
		return nil
	}
	return p.sync.Close()
}

// KafkaPublisher wraps events in a CloudEvents envelope keyed by rental id so
// one rental's events stay ordered within a partition.
type KafkaPublisher struct {
	producer *Producer
	topic    string
	source   string
}

func NewKafkaPublisher(producer *Producer, topic, source string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic, source: source}
}

func (k *KafkaPublisher) Publish(ctx context.Context, evt Event) error {
	envelope := map[string]any{
		"specversion":     "1.0",
		"id":              evt.ID,
		"type":            evt.Type + ".v1",
		"source":          k.source,
		"time":            evt.OccurredAt,
		"datacontenttype": "application/json",
		"data":            evt,
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	headers := map[string]string{
		"content-type": "application/cloudevents+json",
		"ce-type":      evt.Type,
	}
	logger.ExternalServiceCall("Kafka", "Publish", "topic", k.topic, "type", evt.Type, "rentalID", evt.RentalID)
	err = k.producer.Publish(ctx, k.topic, evt.RentalID, payload, headers)
	logger.ExternalServiceResult("Kafka", "Publish", err, "eventID", evt.ID)
	return err
}
