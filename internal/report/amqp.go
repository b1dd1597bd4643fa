package report

import (
	"context"
	"fmt"

	"spendlens/internal/analytics"
)

// Publisher is implemented by the AMQP client.
type Publisher interface {
	PublishReport(ctx context.Context, reportID string, userID int64, body []byte) error
	ReportQueue() string
}

// AMQPSink publishes the report JSON on the report queue.
type AMQPSink struct {
	pub Publisher
}

func NewAMQPSink(pub Publisher) *AMQPSink {
	return &AMQPSink{pub: pub}
}

func (s *AMQPSink) Name() string { return "amqp" }

func (s *AMQPSink) Write(ctx context.Context, rep *analytics.Report) (string, error) {
	body, err := Encode(rep)
	if err != nil {
		return "", err
	}
	if err := s.pub.PublishReport(ctx, rep.ReportID, rep.UserID, body); err != nil {
		return "", fmt.Errorf("publish report %s: %w", rep.ReportID, err)
	}
	return fmt.Sprintf("amqp:%s/%s", s.pub.ReportQueue(), rep.ReportID), nil
}
