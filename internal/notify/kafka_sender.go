package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/IBM/sarama"
)

// Event is the JSON document published to Kafka for every alert.
type Event struct {
	ReceiptNo  string   `json:"rcept_no"`
	CorpName   string   `json:"corp_name"`
	CorpCode   string   `json:"corp_code,omitempty"`
	StockCode  string   `json:"stock_code,omitempty"`
	Title      string   `json:"report_nm"`
	ReceiptDt  string   `json:"rcept_dt"`
	Tag        string   `json:"tag"`
	Grade      string   `json:"grade,omitempty"`
	Severity   string   `json:"severity"`
	Score      int      `json:"score"`
	Keyword    string   `json:"keyword"`
	Note       string   `json:"note,omitempty"`
	Ratio      *float64 `json:"ratio,omitempty"`
	Evidence   string   `json:"evidence,omitempty"`
	Summary    string   `json:"summary,omitempty"`
	URL        string   `json:"url"`
	Test       bool     `json:"test,omitempty"`
	DetectedAt string   `json:"detected_at"`
}

// EventRenderer renders alerts as JSON events.
type EventRenderer struct{}

func (EventRenderer) Render(a Alert) (*RenderedMessage, error) {
	d := a.Disclosure
	r := a.Result

	ev := Event{
		ReceiptNo:  d.ReceiptNo,
		CorpName:   d.CorpName,
		CorpCode:   d.CorpCode,
		StockCode:  d.StockCode,
		Title:      d.Title,
		ReceiptDt:  d.ReceiptDate,
		Tag:        r.Tag.String(),
		Grade:      r.Grade,
		Severity:   r.Severity.String(),
		Score:      r.Score,
		Keyword:    r.Keyword,
		Note:       r.Note,
		Evidence:   r.Evidence,
		Summary:    a.Body,
		URL:        a.Link(),
		Test:       a.Test,
		DetectedAt: a.Detected.Format(time.RFC3339),
	}
	if r.HasRatio {
		ratio := r.Ratio
		ev.Ratio = &ratio
	}

	b, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to encode alert event: %w", err)
	}

	return &RenderedMessage{
		Key:     d.ReceiptNo,
		Subject: d.Title,
		Text:    string(b),
	}, nil
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// KafkaSender publishes rendered events to a topic, keyed by receipt number.
type KafkaSender struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaSender(cfg KafkaConfig) (*KafkaSender, error) {
	sc := sarama.NewConfig()
	sc.Version = sarama.V3_6_0_0
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Retry.Max = 3
	sc.Producer.Return.Successes = true
	sc.Producer.Timeout = 10 * time.Second

	producer, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	log.Printf("Kafka producer connected (topic: %s)", cfg.Topic)
	return NewKafkaSenderWithProducer(producer, cfg.Topic), nil
}

// NewKafkaSenderWithProducer wraps an existing producer.
func NewKafkaSenderWithProducer(p sarama.SyncProducer, topic string) *KafkaSender {
	return &KafkaSender{producer: p, topic: topic}
}

func (s *KafkaSender) Send(ctx context.Context, channel string, msg *RenderedMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	pm := &sarama.ProducerMessage{
		Topic: s.topic,
		Value: sarama.StringEncoder(msg.Text),
	}
	if msg.Key != "" {
		pm.Key = sarama.StringEncoder(msg.Key)
	}
	if channel != "" {
		pm.Headers = []sarama.RecordHeader{{Key: []byte("channel"), Value: []byte(channel)}}
	}

	partition, offset, err := s.producer.SendMessage(pm)
	if err != nil {
		return fmt.Errorf("failed to publish %s to %s: %w", msg.Key, s.topic, err)
	}

	log.Printf("Kafka event published: topic=%s partition=%d offset=%d key=%s", s.topic, partition, offset, msg.Key)
	return nil
}

func (s *KafkaSender) Close() error {
	return s.producer.Close()
}
