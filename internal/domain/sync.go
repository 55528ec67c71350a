package domain

import "time"

// Sync item type names used in per-item error entries.
const (
	SyncItemBid     = "bid"
	SyncItemBooking = "booking"
	SyncItemMessage = "message"
)

// SyncUploadRequest is a batch of records created offline. Each item carries a
// client_temp_id that is unique only within this batch; the reconciler answers
// with the server id assigned to each temp id.
type SyncUploadRequest struct {
	Timestamp time.Time         `json:"timestamp"`
	Bids      []SyncBidItem     `json:"bids"`
	Bookings  []SyncBookingItem `json:"bookings"`
	Messages  []SyncMessageItem `json:"messages"`
}

func (r SyncUploadRequest) ItemCount() int {
	return len(r.Bids) + len(r.Bookings) + len(r.Messages)
}

type SyncBidItem struct {
	ClientTempID string  `json:"client_temp_id" validate:"required"`
	ServiceID    string  `json:"service" validate:"required"`
	Amount       float64 `json:"amount" validate:"required,gt=0"`
	Note         *string `json:"note"`
}

type SyncBookingItem struct {
	ClientTempID string  `json:"client_temp_id" validate:"required"`
	ServiceID    string  `json:"service" validate:"required"`
	ProviderID   string  `json:"provider" validate:"required"`
	BookingDate  string  `json:"booking_date" validate:"required"`
	StartTime    string  `json:"start_time" validate:"required"`
	EndTime      string  `json:"end_time" validate:"required"`
	Amount       float64 `json:"amount" validate:"required,gt=0"`
}

type SyncMessageItem struct {
	ClientTempID string `json:"client_temp_id" validate:"required"`
	ThreadID     string `json:"thread" validate:"required"`
	Content      string `json:"content" validate:"required"`
}

// SyncProcessedItem maps a client temp id to the server-assigned id.
type SyncProcessedItem struct {
	ClientTempID string `json:"client_temp_id"`
	ServerID     string `json:"server_id"`
}

// SyncItemError records a soft per-item failure that did not abort the batch.
type SyncItemError struct {
	ClientTempID string `json:"client_temp_id"`
	ItemType     string `json:"item_type"`
	Reason       string `json:"reason"`
}

type SyncProcessed struct {
	Bids     []SyncProcessedItem `json:"bids"`
	Bookings []SyncProcessedItem `json:"bookings"`
	Messages []SyncProcessedItem `json:"messages"`
}

// SyncUploadResult is the reconciler's answer. Success is true only when the
// errors list is empty; processed plus errors always covers every submitted
// item exactly once.
type SyncUploadResult struct {
	Success       bool            `json:"success"`
	Processed     SyncProcessed   `json:"processed"`
	Errors        []SyncItemError `json:"errors"`
	SyncTimestamp time.Time       `json:"sync_timestamp"`
}

// SyncProfile is the own-profile snapshot offline clients cache locally.
type SyncProfile struct {
	User          *User          `json:"user"`
	Verifications []Verification `json:"verifications"`
}
