package domain

import "time"

// Bid statuses.
const (
	BidSubmitted = "submitted"
	BidAccepted  = "accepted"
	BidDeclined  = "declined"
)

// Booking statuses.
const (
	BookingRequested = "requested"
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
)

// Bid is an offer a client places on a catalog service. ClientTempID is kept
// when the row arrived through an offline sync upload so the client can
// correlate on later downloads.
type Bid struct {
	BidID        string    `json:"id" dynamodbav:"bid_id"`
	ClientTempID *string   `json:"client_temp_id,omitempty" dynamodbav:"client_temp_id"`
	UserID       string    `json:"user_id" dynamodbav:"user_id"`
	ServiceID    string    `json:"service_id" dynamodbav:"service_id"`
	Amount       float64   `json:"amount" dynamodbav:"amount"`
	Note         *string   `json:"note,omitempty" dynamodbav:"note"`
	Status       string    `json:"status" dynamodbav:"status"`
	CreatedAt    time.Time `json:"created" dynamodbav:"created_at"`
}

type Booking struct {
	BookingID    string    `json:"id" dynamodbav:"booking_id"`
	ClientTempID *string   `json:"client_temp_id,omitempty" dynamodbav:"client_temp_id"`
	UserID       string    `json:"user_id" dynamodbav:"user_id"`
	ServiceID    string    `json:"service_id" dynamodbav:"service_id"`
	ProviderID   string    `json:"provider_id" dynamodbav:"provider_id"`
	BookingDate  string    `json:"booking_date" dynamodbav:"booking_date"` // YYYY-MM-DD
	StartTime    string    `json:"start_time" dynamodbav:"start_time"`    // HH:MM
	EndTime      string    `json:"end_time" dynamodbav:"end_time"`        // HH:MM
	Amount       float64   `json:"amount" dynamodbav:"amount"`
	Status       string    `json:"status" dynamodbav:"status"`
	CreatedAt    time.Time `json:"created" dynamodbav:"created_at"`
}

// Thread is a two-party conversation; delivery over WebSocket is handled by an
// external gateway, only the rows live here.
type Thread struct {
	ThreadID     string    `json:"id" dynamodbav:"thread_id"`
	Participants []string  `json:"participants" dynamodbav:"participants"`
	CreatedAt    time.Time `json:"created" dynamodbav:"created_at"`
}

type Message struct {
	MessageID    string    `json:"id" dynamodbav:"message_id"`
	ClientTempID *string   `json:"client_temp_id,omitempty" dynamodbav:"client_temp_id"`
	ThreadID     string    `json:"thread_id" dynamodbav:"thread_id"`
	SenderID     string    `json:"sender_id" dynamodbav:"sender_id"`
	Content      string    `json:"content" dynamodbav:"content"`
	CreatedAt    time.Time `json:"created" dynamodbav:"created_at"`
}

type PostMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

// StartThreadRequest opens a conversation with another user. The thread is
// created on the first direct message; later messages to the same recipient
// reuse it.
type StartThreadRequest struct {
	RecipientID string `json:"recipient_id" validate:"required"`
	Content     string `json:"content" validate:"required"`
}
