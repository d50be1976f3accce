package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"coursepay/internal/usecase"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const subjectPrefix = "orders"

// orders.<status小文字> に注文の結果を流す
func Subject(ev usecase.OrderOutcomeEvent) string {
	return subjectPrefix + "." + strings.ToLower(string(ev.Status))
}

type NATSPublisher struct {
	conn *nats.Conn
}

func Connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url, nats.Name("coursepay"))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return conn, nil
}

func NewNATSPublisher(conn *nats.Conn) *NATSPublisher {
	return &NATSPublisher{conn: conn}
}

func (p *NATSPublisher) PublishOrderOutcome(ctx context.Context, ev usecase.OrderOutcomeEvent) error {
	if p.conn == nil {
		return nats.ErrConnectionClosed
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.conn.Publish(Subject(ev), data)
}

// NATS_URLが無いときはログに出すだけ
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) PublishOrderOutcome(ctx context.Context, ev usecase.OrderOutcomeEvent) error {
	p.logger.Info("order outcome",
		zap.String("subject", Subject(ev)),
		zap.String("order_number", ev.OrderNumber),
		zap.String("status", string(ev.Status)),
	)
	return nil
}
