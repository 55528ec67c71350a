package marketplace

import (
	"context"
	"fmt"
	"time"

	"github.com/servicelink-api/internal/domain"
	"github.com/servicelink-api/internal/pkg/id"
)

type Service interface {
	ListBids(ctx context.Context, actor domain.Actor) ([]domain.Bid, error)
	ListBookings(ctx context.Context, actor domain.Actor) ([]domain.Booking, error)
	ListProviderBookings(ctx context.Context, actor domain.Actor) ([]domain.Booking, error)
	ListThreads(ctx context.Context, actor domain.Actor) ([]domain.Thread, error)
	ListMessages(ctx context.Context, actor domain.Actor, threadID string) ([]domain.Message, error)
	StartThread(ctx context.Context, actor domain.Actor, req domain.StartThreadRequest) (*domain.Thread, *domain.Message, error)
	PostMessage(ctx context.Context, actor domain.Actor, threadID string, req domain.PostMessageRequest) (*domain.Message, error)
}

type bidStore interface {
	ListByUser(ctx context.Context, userID string) ([]domain.Bid, error)
}

type bookingStore interface {
	ListByUser(ctx context.Context, userID string) ([]domain.Booking, error)
	ListByProvider(ctx context.Context, providerID string) ([]domain.Booking, error)
}

type threadStore interface {
	Get(ctx context.Context, threadID string) (*domain.Thread, error)
	ListByParticipant(ctx context.Context, userID string) ([]domain.Thread, error)
	Put(ctx context.Context, t *domain.Thread) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type messageStore interface {
	Put(ctx context.Context, m *domain.Message) error
	ListByThread(ctx context.Context, threadID string) ([]domain.Message, error)
}

type service struct {
	bids     bidStore
	bookings bookingStore
	threads  threadStore
	messages messageStore
	users    userStore
}

type ServiceDeps struct {
	BidRepo     bidStore
	BookingRepo bookingStore
	ThreadRepo  threadStore
	MessageRepo messageStore
	UserRepo    userStore
}

func NewService(deps ServiceDeps) Service {
	return &service{
		bids:     deps.BidRepo,
		bookings: deps.BookingRepo,
		threads:  deps.ThreadRepo,
		messages: deps.MessageRepo,
		users:    deps.UserRepo,
	}
}

func (s *service) ListBids(ctx context.Context, actor domain.Actor) ([]domain.Bid, error) {
	return s.bids.ListByUser(ctx, actor.UserID)
}

func (s *service) ListBookings(ctx context.Context, actor domain.Actor) ([]domain.Booking, error) {
	return s.bookings.ListByUser(ctx, actor.UserID)
}

func (s *service) ListProviderBookings(ctx context.Context, actor domain.Actor) ([]domain.Booking, error) {
	return s.bookings.ListByProvider(ctx, actor.UserID)
}

func (s *service) ListThreads(ctx context.Context, actor domain.Actor) ([]domain.Thread, error) {
	return s.threads.ListByParticipant(ctx, actor.UserID)
}

func (s *service) ListMessages(ctx context.Context, actor domain.Actor, threadID string) ([]domain.Message, error) {
	if _, err := s.memberThread(ctx, actor, threadID); err != nil {
		return nil, err
	}
	return s.messages.ListByThread(ctx, threadID)
}

// StartThread posts the first direct message to a recipient, creating the
// two-party thread if none exists yet and reusing it otherwise.
func (s *service) StartThread(ctx context.Context, actor domain.Actor, req domain.StartThreadRequest) (*domain.Thread, *domain.Message, error) {
	if req.RecipientID == actor.UserID {
		return nil, nil, fmt.Errorf("cannot start a thread with yourself: %w", domain.ErrBadRequest)
	}
	if _, err := s.users.Get(ctx, req.RecipientID); err != nil {
		return nil, nil, err
	}
	t, err := s.findDirectThread(ctx, actor.UserID, req.RecipientID)
	if err != nil {
		return nil, nil, err
	}
	if t == nil {
		t = &domain.Thread{
			ThreadID:     id.New(),
			Participants: []string{actor.UserID, req.RecipientID},
			CreatedAt:    time.Now().UTC(),
		}
		if err := s.threads.Put(ctx, t); err != nil {
			return nil, nil, err
		}
	}
	m := &domain.Message{
		MessageID: id.New(),
		ThreadID:  t.ThreadID,
		SenderID:  actor.UserID,
		Content:   req.Content,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.messages.Put(ctx, m); err != nil {
		return nil, nil, err
	}
	return t, m, nil
}

// findDirectThread returns the existing two-party thread between a and b,
// or nil when they have never exchanged messages.
func (s *service) findDirectThread(ctx context.Context, a, b string) (*domain.Thread, error) {
	threads, err := s.threads.ListByParticipant(ctx, a)
	if err != nil {
		return nil, err
	}
	for i := range threads {
		t := &threads[i]
		if len(t.Participants) != 2 {
			continue
		}
		if (t.Participants[0] == a && t.Participants[1] == b) ||
			(t.Participants[0] == b && t.Participants[1] == a) {
			return t, nil
		}
	}
	return nil, nil
}

// PostMessage is the online path; offline clients go through sync upload.
func (s *service) PostMessage(ctx context.Context, actor domain.Actor, threadID string, req domain.PostMessageRequest) (*domain.Message, error) {
	if _, err := s.memberThread(ctx, actor, threadID); err != nil {
		return nil, err
	}
	m := &domain.Message{
		MessageID: id.New(),
		ThreadID:  threadID,
		SenderID:  actor.UserID,
		Content:   req.Content,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.messages.Put(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *service) memberThread(ctx context.Context, actor domain.Actor, threadID string) (*domain.Thread, error) {
	t, err := s.threads.Get(ctx, threadID)
	if err != nil {
		return nil, err
	}
	for _, p := range t.Participants {
		if p == actor.UserID {
			return t, nil
		}
	}
	return nil, fmt.Errorf("not a thread participant: %w", domain.ErrForbidden)
}
