package sync

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/servicelink-api/internal/domain"
	"github.com/servicelink-api/internal/pkg/id"
)

// dateLayout / timeLayout are the wire formats offline clients send.
const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

type Service interface {
	Upload(ctx context.Context, actor domain.Actor, req domain.SyncUploadRequest) (*domain.SyncUploadResult, error)
	Profile(ctx context.Context, actor domain.Actor) (*domain.SyncProfile, error)
	Services(ctx context.Context, filter domain.ServiceFilter) ([]domain.Service, error)
}

type bidStore interface {
	TxPut(b *domain.Bid) (types.TransactWriteItem, error)
}

type bookingStore interface {
	TxPut(b *domain.Booking) (types.TransactWriteItem, error)
}

type messageStore interface {
	TxPut(m *domain.Message) (types.TransactWriteItem, error)
}

type serviceStore interface {
	Get(ctx context.Context, serviceID string) (*domain.Service, error)
	List(ctx context.Context, filter domain.ServiceFilter) ([]domain.Service, error)
}

type threadStore interface {
	Get(ctx context.Context, threadID string) (*domain.Thread, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type verificationStore interface {
	ListByUser(ctx context.Context, userID string) ([]domain.Verification, error)
}

type transactor interface {
	Write(ctx context.Context, items []types.TransactWriteItem) error
}

type service struct {
	bids          bidStore
	bookings      bookingStore
	messages      messageStore
	services      serviceStore
	threads       threadStore
	users         userStore
	verifications verificationStore
	tx            transactor
	maxBatchItems int
}

type ServiceDeps struct {
	BidRepo          bidStore
	BookingRepo      bookingStore
	MessageRepo      messageStore
	ServiceRepo      serviceStore
	ThreadRepo       threadStore
	UserRepo         userStore
	VerificationRepo verificationStore
	Transactor       transactor
	MaxBatchItems    int
}

func NewService(deps ServiceDeps) Service {
	return &service{
		bids:          deps.BidRepo,
		bookings:      deps.BookingRepo,
		messages:      deps.MessageRepo,
		services:      deps.ServiceRepo,
		threads:       deps.ThreadRepo,
		users:         deps.UserRepo,
		verifications: deps.VerificationRepo,
		tx:            deps.Transactor,
		maxBatchItems: deps.MaxBatchItems,
	}
}

// Upload reconciles a batch of offline-created records. Item validation is
// soft: a bad item lands in errors[] while its siblings proceed. The commit
// itself is all-or-nothing through a single datastore transaction, so a
// datastore failure leaves no partial writes behind.
func (s *service) Upload(ctx context.Context, actor domain.Actor, req domain.SyncUploadRequest) (*domain.SyncUploadResult, error) {
	if req.ItemCount() == 0 {
		return nil, fmt.Errorf("empty sync batch: %w", domain.ErrBadRequest)
	}
	if req.ItemCount() > s.maxBatchItems {
		return nil, fmt.Errorf("batch of %d items exceeds limit of %d: %w",
			req.ItemCount(), s.maxBatchItems, domain.ErrBadRequest)
	}

	b := newBatch(actor.UserID)

	for i := range req.Bids {
		s.collectBid(ctx, b, &req.Bids[i])
	}
	for i := range req.Bookings {
		s.collectBooking(ctx, b, &req.Bookings[i])
	}
	for i := range req.Messages {
		s.collectMessage(ctx, b, &req.Messages[i])
	}

	if len(b.txItems) > 0 {
		if err := s.tx.Write(ctx, b.txItems); err != nil {
			slog.Error("sync transaction failed", "user_id", actor.UserID,
				"items", len(b.txItems), "err", err)
			return nil, fmt.Errorf("sync commit failed: %w", err)
		}
	}

	result := &domain.SyncUploadResult{
		Success:       len(b.errors) == 0,
		Processed:     b.processed,
		Errors:        b.errors,
		SyncTimestamp: time.Now().UTC(),
	}
	return result, nil
}

// batch accumulates per-request reconciliation state: transaction elements,
// the temp-id set for duplicate detection, and the running result lists.
type batch struct {
	userID    string
	now       time.Time
	seenTemp  map[string]bool
	txItems   []types.TransactWriteItem
	processed domain.SyncProcessed
	errors    []domain.SyncItemError
}

func newBatch(userID string) *batch {
	return &batch{
		userID:   userID,
		now:      time.Now().UTC(),
		seenTemp: make(map[string]bool),
		errors:   []domain.SyncItemError{},
		processed: domain.SyncProcessed{
			Bids:     []domain.SyncProcessedItem{},
			Bookings: []domain.SyncProcessedItem{},
			Messages: []domain.SyncProcessedItem{},
		},
	}
}

func (b *batch) fail(tempID, itemType, reason string) {
	b.errors = append(b.errors, domain.SyncItemError{
		ClientTempID: tempID,
		ItemType:     itemType,
		Reason:       reason,
	})
}

// claimTempID enforces batch-local temp-id uniqueness.
func (b *batch) claimTempID(tempID, itemType string) bool {
	if tempID == "" {
		b.fail(tempID, itemType, "client_temp_id is required")
		return false
	}
	if b.seenTemp[tempID] {
		b.fail(tempID, itemType, "duplicate client_temp_id in batch")
		return false
	}
	b.seenTemp[tempID] = true
	return true
}

func (s *service) collectBid(ctx context.Context, b *batch, item *domain.SyncBidItem) {
	if !b.claimTempID(item.ClientTempID, domain.SyncItemBid) {
		return
	}
	if item.ServiceID == "" {
		b.fail(item.ClientTempID, domain.SyncItemBid, "service is required")
		return
	}
	if item.Amount <= 0 {
		b.fail(item.ClientTempID, domain.SyncItemBid, "amount must be positive")
		return
	}
	if _, err := s.services.Get(ctx, item.ServiceID); err != nil {
		b.fail(item.ClientTempID, domain.SyncItemBid, "service not found: "+item.ServiceID)
		return
	}
	tempID := item.ClientTempID
	bid := &domain.Bid{
		BidID:        id.New(),
		ClientTempID: &tempID,
		UserID:       b.userID,
		ServiceID:    item.ServiceID,
		Amount:       item.Amount,
		Note:         item.Note,
		Status:       domain.BidSubmitted,
		CreatedAt:    b.now,
	}
	tx, err := s.bids.TxPut(bid)
	if err != nil {
		b.fail(item.ClientTempID, domain.SyncItemBid, "could not encode bid")
		return
	}
	b.txItems = append(b.txItems, tx)
	b.processed.Bids = append(b.processed.Bids, domain.SyncProcessedItem{
		ClientTempID: item.ClientTempID,
		ServerID:     bid.BidID,
	})
}

func (s *service) collectBooking(ctx context.Context, b *batch, item *domain.SyncBookingItem) {
	if !b.claimTempID(item.ClientTempID, domain.SyncItemBooking) {
		return
	}
	switch {
	case item.ServiceID == "":
		b.fail(item.ClientTempID, domain.SyncItemBooking, "service is required")
		return
	case item.ProviderID == "":
		b.fail(item.ClientTempID, domain.SyncItemBooking, "provider is required")
		return
	case item.BookingDate == "" || item.StartTime == "" || item.EndTime == "":
		b.fail(item.ClientTempID, domain.SyncItemBooking, "booking_date, start_time and end_time are required")
		return
	case item.Amount <= 0:
		b.fail(item.ClientTempID, domain.SyncItemBooking, "amount must be positive")
		return
	}
	if _, err := time.Parse(dateLayout, item.BookingDate); err != nil {
		b.fail(item.ClientTempID, domain.SyncItemBooking, "booking_date must be YYYY-MM-DD")
		return
	}
	start, err := time.Parse(timeLayout, item.StartTime)
	if err != nil {
		b.fail(item.ClientTempID, domain.SyncItemBooking, "start_time must be HH:MM")
		return
	}
	end, err := time.Parse(timeLayout, item.EndTime)
	if err != nil {
		b.fail(item.ClientTempID, domain.SyncItemBooking, "end_time must be HH:MM")
		return
	}
	if !end.After(start) {
		b.fail(item.ClientTempID, domain.SyncItemBooking, "end_time must be after start_time")
		return
	}
	if _, err := s.services.Get(ctx, item.ServiceID); err != nil {
		b.fail(item.ClientTempID, domain.SyncItemBooking, "service not found: "+item.ServiceID)
		return
	}
	if _, err := s.users.Get(ctx, item.ProviderID); err != nil {
		b.fail(item.ClientTempID, domain.SyncItemBooking, "provider not found: "+item.ProviderID)
		return
	}
	tempID := item.ClientTempID
	booking := &domain.Booking{
		BookingID:    id.New(),
		ClientTempID: &tempID,
		UserID:       b.userID,
		ServiceID:    item.ServiceID,
		ProviderID:   item.ProviderID,
		BookingDate:  item.BookingDate,
		StartTime:    item.StartTime,
		EndTime:      item.EndTime,
		Amount:       item.Amount,
		Status:       domain.BookingRequested,
		CreatedAt:    b.now,
	}
	tx, err := s.bookings.TxPut(booking)
	if err != nil {
		b.fail(item.ClientTempID, domain.SyncItemBooking, "could not encode booking")
		return
	}
	b.txItems = append(b.txItems, tx)
	b.processed.Bookings = append(b.processed.Bookings, domain.SyncProcessedItem{
		ClientTempID: item.ClientTempID,
		ServerID:     booking.BookingID,
	})
}

func (s *service) collectMessage(ctx context.Context, b *batch, item *domain.SyncMessageItem) {
	if !b.claimTempID(item.ClientTempID, domain.SyncItemMessage) {
		return
	}
	if item.ThreadID == "" {
		b.fail(item.ClientTempID, domain.SyncItemMessage, "thread is required")
		return
	}
	if item.Content == "" {
		b.fail(item.ClientTempID, domain.SyncItemMessage, "content is required")
		return
	}
	thread, err := s.threads.Get(ctx, item.ThreadID)
	if err != nil {
		b.fail(item.ClientTempID, domain.SyncItemMessage, "thread not found: "+item.ThreadID)
		return
	}
	if !participant(thread, b.userID) {
		b.fail(item.ClientTempID, domain.SyncItemMessage, "sender is not a thread participant")
		return
	}
	tempID := item.ClientTempID
	msg := &domain.Message{
		MessageID:    id.New(),
		ClientTempID: &tempID,
		ThreadID:     item.ThreadID,
		SenderID:     b.userID,
		Content:      item.Content,
		CreatedAt:    b.now,
	}
	tx, err := s.messages.TxPut(msg)
	if err != nil {
		b.fail(item.ClientTempID, domain.SyncItemMessage, "could not encode message")
		return
	}
	b.txItems = append(b.txItems, tx)
	b.processed.Messages = append(b.processed.Messages, domain.SyncProcessedItem{
		ClientTempID: item.ClientTempID,
		ServerID:     msg.MessageID,
	})
}

func participant(t *domain.Thread, userID string) bool {
	for _, p := range t.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// Profile returns the snapshot offline clients cache between syncs.
func (s *service) Profile(ctx context.Context, actor domain.Actor) (*domain.SyncProfile, error) {
	u, err := s.users.Get(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	records, err := s.verifications.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return &domain.SyncProfile{User: u, Verifications: records}, nil
}

// Services serves the incremental catalog download.
func (s *service) Services(ctx context.Context, filter domain.ServiceFilter) ([]domain.Service, error) {
	services, err := s.services.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if filter.Query == "" {
		return services, nil
	}
	filtered := services[:0]
	for _, svc := range services {
		if containsFold(svc.Title, filter.Query) || containsFold(svc.Description, filter.Query) {
			filtered = append(filtered, svc)
		}
	}
	return filtered, nil
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
