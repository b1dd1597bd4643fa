package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ReportRequestMessage asks a worker to compose the report of one user.
// The worker reads the ledger itself; the message only names the user.
type ReportRequestMessage struct {
	RequestID string    `json:"request_id"`
	UserID    int64     `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewReportRequestMessage creates a request with a fresh request id
func NewReportRequestMessage(userID int64) *ReportRequestMessage {
	return &ReportRequestMessage{
		RequestID: uuid.NewString(),
		UserID:    userID,
		Timestamp: time.Now().UTC(),
	}
}

func (m *ReportRequestMessage) Validate() error {
	if m.RequestID == "" {
		return errors.New("request_id is required")
	}
	if m.UserID <= 0 {
		return errors.New("user_id must be positive")
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *ReportRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReportRequestMessageFromJSON creates a message from JSON bytes
func ReportRequestMessageFromJSON(data []byte) (*ReportRequestMessage, error) {
	var msg ReportRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
