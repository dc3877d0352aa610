package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/LordDigitalis/Sportstaetten-Verwaltung/pkg/logger"
	"github.com/nats-io/nats.go"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Subscriber interface {
	QueueSubscribe(subject, queue string, handler func(msg *Message)) error
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.WithContext(ctx).Debug("Publishing event", "subject", subject)

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	_, err := n.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
		})
	})
	return err
}

func (n *NATSEventBus) Close() error {
	n.conn.Close()
	return nil
}

// Subjects
const (
	BookingRequested = "booking.requested"
	BookingApproved  = "booking.approved"
	BookingRejected  = "booking.rejected"
	BookingCancelled = "booking.cancelled"
	BookingReminder  = "booking.reminder"
	PaymentReceived  = "payment.received"
	PaymentRefunded  = "payment.refunded"
	ContactMessage   = "contact.message"
)

type BookingRequestedEvent struct {
	BookingID int64     `json:"booking_id"`
	RoomName  string    `json:"room_name"`
	Username  string    `json:"username"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

type BookingApprovedEvent struct {
	BookingID   int64         `json:"booking_id"`
	RoomName    string        `json:"room_name"`
	Email       string        `json:"email"`
	Phone       string        `json:"phone,omitempty"`
	StartTime   time.Time     `json:"start_time"`
	EndTime     time.Time     `json:"end_time"`
	TotalCents  int64         `json:"total_cents"`
	PaymentURLs []PaymentLink `json:"payment_urls"`
}

type PaymentLink struct {
	Method string `json:"method"`
	URL    string `json:"url,omitempty"`
	Ref    string `json:"ref"`
}

type BookingRejectedEvent struct {
	BookingID int64  `json:"booking_id"`
	RoomName  string `json:"room_name"`
	Email     string `json:"email"`
}

type BookingCancelledEvent struct {
	BookingID int64  `json:"booking_id"`
	RoomName  string `json:"room_name"`
	Email     string `json:"email"`
	Reason    string `json:"reason"`
}

type BookingReminderEvent struct {
	BookingID int64     `json:"booking_id"`
	RoomName  string    `json:"room_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	StartTime time.Time `json:"start_time"`
}

type PaymentReceivedEvent struct {
	BookingID int64  `json:"booking_id"`
	Method    string `json:"method"`
	Email     string `json:"email"`
}

type PaymentRefundedEvent struct {
	BookingID  int64  `json:"booking_id"`
	Method     string `json:"method"`
	Email      string `json:"email"`
	TotalCents int64  `json:"total_cents"`
}

type ContactMessageEvent struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}
