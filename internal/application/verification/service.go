package verification

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/servicelink-api/internal/domain"
	"github.com/servicelink-api/internal/pkg/id"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldStatus         = "status"
	fieldDocumentURL    = "document_url"
	fieldDocumentBack   = "document_back_url"
	fieldDocumentNumber = "document_number"
	fieldVerifiedBy     = "verified_by"
	fieldVerifiedAt     = "verified_at"
	fieldExpiresAt      = "expires_at"
	fieldNotes          = "verification_notes"
	fieldUpdatedAt      = "updated_at"
)

type Service interface {
	Submit(ctx context.Context, actor domain.Actor, req domain.SubmitVerificationRequest) (*domain.Verification, error)
	List(ctx context.Context, actor domain.Actor, userID string) ([]domain.Verification, error)
	Get(ctx context.Context, actor domain.Actor, verificationID string) (*domain.Verification, error)
	Update(ctx context.Context, actor domain.Actor, verificationID string, req domain.UpdateVerificationRequest) (*domain.Verification, error)
	Cancel(ctx context.Context, actor domain.Actor, verificationID string) (*domain.Verification, error)
	MarkInProgress(ctx context.Context, actor domain.Actor, verificationID string, notes *string) (*domain.Verification, error)
	MarkVerified(ctx context.Context, actor domain.Actor, verificationID string, notes *string) (*domain.Verification, error)
	MarkRejected(ctx context.Context, actor domain.Actor, verificationID string, reason string) (*domain.Verification, error)
	StatusSummary(ctx context.Context, actor domain.Actor) (*domain.VerificationSummary, error)
}

type verificationStore interface {
	Put(ctx context.Context, v *domain.Verification) error
	Get(ctx context.Context, verificationID string) (*domain.Verification, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Verification, error)
	Update(ctx context.Context, verificationID string, updates map[string]interface{}) error
	CountByStatus(ctx context.Context) (map[string]int, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type notificationStore interface {
	Put(ctx context.Context, n *domain.Notification) error
}

type mailer interface {
	SendEmail(to, subject, body string) error
}

type smsSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

type service struct {
	repo             verificationStore
	userRepo         userStore
	notificationRepo notificationStore
	mailer           mailer
	smsSender        smsSender
	validity         time.Duration
}

type ServiceDeps struct {
	VerificationRepo verificationStore
	UserRepo         userStore
	NotificationRepo notificationStore
	Mailer           mailer
	SMSSender        smsSender
	Validity         time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:             deps.VerificationRepo,
		userRepo:         deps.UserRepo,
		notificationRepo: deps.NotificationRepo,
		mailer:           deps.Mailer,
		smsSender:        deps.SMSSender,
		validity:         deps.Validity,
	}
}

func (s *service) Submit(ctx context.Context, actor domain.Actor, req domain.SubmitVerificationRequest) (*domain.Verification, error) {
	if !slices.Contains(domain.VerificationTypes, req.VerificationType) {
		return nil, fmt.Errorf("unknown verification_type %q: %w", req.VerificationType, domain.ErrBadRequest)
	}
	if !slices.Contains(domain.DocumentTypes, req.DocumentType) {
		return nil, fmt.Errorf("unknown document_type %q: %w", req.DocumentType, domain.ErrBadRequest)
	}

	existing, err := s.repo.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	for i := range existing {
		v := s.expireIfDue(ctx, &existing[i])
		if v.VerificationType == req.VerificationType &&
			v.DocumentType == req.DocumentType &&
			!domain.VerificationTerminal(v.Status) {
			return nil, fmt.Errorf("a %s verification with a %s is already open: %w",
				req.VerificationType, req.DocumentType, domain.ErrConflict)
		}
	}

	now := time.Now().UTC()
	v := &domain.Verification{
		VerificationID:      id.New(),
		UserID:              actor.UserID,
		VerificationType:    req.VerificationType,
		DocumentType:        req.DocumentType,
		DocumentURL:         req.DocumentURL,
		DocumentBackURL:     req.DocumentBackURL,
		DocumentNumber:      req.DocumentNumber,
		ExternalReferenceID: req.ExternalReferenceID,
		Status:              domain.VerificationPending,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.repo.Put(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *service) List(ctx context.Context, actor domain.Actor, userID string) ([]domain.Verification, error) {
	if userID != actor.UserID && !actor.IsAdmin() {
		return nil, fmt.Errorf("cannot list another user's verifications: %w", domain.ErrForbidden)
	}
	records, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range records {
		records[i] = *s.expireIfDue(ctx, &records[i])
	}
	return records, nil
}

func (s *service) Get(ctx context.Context, actor domain.Actor, verificationID string) (*domain.Verification, error) {
	v, err := s.repo.Get(ctx, verificationID)
	if err != nil {
		return nil, err
	}
	if v.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, fmt.Errorf("not the record owner: %w", domain.ErrForbidden)
	}
	return s.expireIfDue(ctx, v), nil
}

// Update replaces document fields while the record is still pending.
func (s *service) Update(ctx context.Context, actor domain.Actor, verificationID string, req domain.UpdateVerificationRequest) (*domain.Verification, error) {
	v, err := s.ownedRecord(ctx, actor, verificationID)
	if err != nil {
		return nil, err
	}
	if v.Status != domain.VerificationPending {
		return nil, fmt.Errorf("only pending verifications can be edited: %w", domain.ErrInvalidTransition)
	}
	updates := map[string]interface{}{}
	if req.DocumentURL != nil {
		updates[fieldDocumentURL] = *req.DocumentURL
	}
	if req.DocumentBackURL != nil {
		updates[fieldDocumentBack] = *req.DocumentBackURL
	}
	if req.DocumentNumber != nil {
		updates[fieldDocumentNumber] = *req.DocumentNumber
	}
	if len(updates) == 0 {
		return v, nil
	}
	updates[fieldUpdatedAt] = time.Now().UTC().Format(time.RFC3339)
	if err := s.repo.Update(ctx, verificationID, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, verificationID)
}

func (s *service) Cancel(ctx context.Context, actor domain.Actor, verificationID string) (*domain.Verification, error) {
	v, err := s.ownedRecord(ctx, actor, verificationID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, v, domain.ActionCancel, nil, nil)
}

func (s *service) MarkInProgress(ctx context.Context, actor domain.Actor, verificationID string, notes *string) (*domain.Verification, error) {
	v, err := s.adminRecord(ctx, actor, verificationID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, v, domain.ActionMarkInProgress, &actor, notes)
}

func (s *service) MarkVerified(ctx context.Context, actor domain.Actor, verificationID string, notes *string) (*domain.Verification, error) {
	v, err := s.adminRecord(ctx, actor, verificationID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, v, domain.ActionMarkVerified, &actor, notes)
}

func (s *service) MarkRejected(ctx context.Context, actor domain.Actor, verificationID string, reason string) (*domain.Verification, error) {
	if reason == "" {
		return nil, fmt.Errorf("a rejection reason is required: %w", domain.ErrBadRequest)
	}
	v, err := s.adminRecord(ctx, actor, verificationID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, v, domain.ActionMarkRejected, &actor, &reason)
}

func (s *service) StatusSummary(ctx context.Context, actor domain.Actor) (*domain.VerificationSummary, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("admin only: %w", domain.ErrForbidden)
	}
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	sum := &domain.VerificationSummary{
		Pending:    counts[domain.VerificationPending],
		InProgress: counts[domain.VerificationInProgress],
		Verified:   counts[domain.VerificationVerified],
		Rejected:   counts[domain.VerificationRejected],
		Cancelled:  counts[domain.VerificationCancelled],
		Expired:    counts[domain.VerificationExpired],
	}
	sum.Total = sum.Pending + sum.InProgress + sum.Verified + sum.Rejected + sum.Cancelled + sum.Expired
	return sum, nil
}

// transition applies one edge of the state machine and persists the result.
// actor is nil for owner actions that don't stamp verified_by.
func (s *service) transition(ctx context.Context, v *domain.Verification, action string, actor *domain.Actor, notes *string) (*domain.Verification, error) {
	next, ok := domain.NextVerificationStatus(v.Status, action)
	if !ok {
		return nil, fmt.Errorf("%s is not allowed from %s: %w", action, v.Status, domain.ErrInvalidTransition)
	}
	now := time.Now().UTC()
	updates := map[string]interface{}{
		fieldStatus:    next,
		fieldUpdatedAt: now.Format(time.RFC3339),
	}
	if notes != nil {
		updates[fieldNotes] = *notes
		v.VerificationNotes = notes
	}
	if actor != nil && action != domain.ActionCancel {
		updates[fieldVerifiedBy] = actor.UserID
		uid := actor.UserID
		v.VerifiedBy = &uid
	}
	if next == domain.VerificationVerified {
		expires := now.Add(s.validity)
		updates[fieldVerifiedAt] = now.Format(time.RFC3339)
		updates[fieldExpiresAt] = expires.Format(time.RFC3339)
		v.VerifiedAt = &now
		v.ExpiresAt = &expires
	}
	if err := s.repo.Update(ctx, v.VerificationID, updates); err != nil {
		return nil, err
	}
	v.Status = next
	v.UpdatedAt = now

	s.applySideEffects(ctx, v, next)
	return v, nil
}

// applySideEffects maintains the denormalized user flag and notifies the owner
// of decisions. Notification/e-mail/SMS failures are logged, never surfaced.
func (s *service) applySideEffects(ctx context.Context, v *domain.Verification, status string) {
	var message string
	switch status {
	case domain.VerificationVerified:
		message = "Your " + v.VerificationType + " verification was approved."
		if err := s.userRepo.Update(ctx, v.UserID, map[string]interface{}{"verified": true}); err != nil {
			slog.Error("failed to set verified flag", "user_id", v.UserID, "err", err)
		}
	case domain.VerificationRejected:
		message = "Your " + v.VerificationType + " verification was rejected."
	case domain.VerificationExpired:
		message = "Your " + v.VerificationType + " verification expired. Please re-submit."
		if err := s.userRepo.Update(ctx, v.UserID, map[string]interface{}{"verified": false}); err != nil {
			slog.Error("failed to clear verified flag", "user_id", v.UserID, "err", err)
		}
	default:
		return
	}

	now := time.Now().UTC()
	n := &domain.Notification{
		NotificationID: id.New(),
		UserID:         v.UserID,
		VerificationID: &v.VerificationID,
		Message:        message,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.notificationRepo.Put(ctx, n); err != nil {
		slog.Error("failed to write notification", "user_id", v.UserID, "err", err)
	}

	u, err := s.userRepo.Get(ctx, v.UserID)
	if err != nil {
		slog.Error("failed to load user for notification", "user_id", v.UserID, "err", err)
		return
	}
	if s.mailer != nil {
		if err := s.mailer.SendEmail(u.Email, "Verification update", message); err != nil {
			slog.Warn("verification e-mail failed", "user_id", v.UserID, "err", err)
		}
	}
	if s.smsSender != nil && u.Phone != nil {
		if err := s.smsSender.SendSMS(ctx, *u.Phone, message); err != nil {
			slog.Warn("verification SMS failed", "user_id", v.UserID, "err", err)
		}
	}
}

// expireIfDue lazily moves verified records past their expires_at into expired.
func (s *service) expireIfDue(ctx context.Context, v *domain.Verification) *domain.Verification {
	if v.Status != domain.VerificationVerified || v.ExpiresAt == nil || time.Now().Before(*v.ExpiresAt) {
		return v
	}
	next, ok := domain.NextVerificationStatus(v.Status, domain.ActionExpire)
	if !ok {
		return v
	}
	now := time.Now().UTC()
	updates := map[string]interface{}{
		fieldStatus:    next,
		fieldUpdatedAt: now.Format(time.RFC3339),
	}
	if err := s.repo.Update(ctx, v.VerificationID, updates); err != nil {
		slog.Error("failed to expire verification", "verification_id", v.VerificationID, "err", err)
		return v
	}
	v.Status = next
	v.UpdatedAt = now
	s.applySideEffects(ctx, v, next)
	return v
}

func (s *service) ownedRecord(ctx context.Context, actor domain.Actor, verificationID string) (*domain.Verification, error) {
	v, err := s.repo.Get(ctx, verificationID)
	if err != nil {
		return nil, err
	}
	if v.UserID != actor.UserID {
		return nil, fmt.Errorf("not the record owner: %w", domain.ErrForbidden)
	}
	return s.expireIfDue(ctx, v), nil
}

func (s *service) adminRecord(ctx context.Context, actor domain.Actor, verificationID string) (*domain.Verification, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("admin only: %w", domain.ErrForbidden)
	}
	v, err := s.repo.Get(ctx, verificationID)
	if err != nil {
		return nil, err
	}
	return s.expireIfDue(ctx, v), nil
}
