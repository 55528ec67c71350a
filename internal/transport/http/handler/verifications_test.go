package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/servicelink-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockVerificationSvc struct{ mock.Mock }

func (m *mockVerificationSvc) Submit(ctx context.Context, actor domain.Actor, req domain.SubmitVerificationRequest) (*domain.Verification, error) {
	args := m.Called(ctx, actor, req)
	if v, _ := args.Get(0).(*domain.Verification); v != nil {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockVerificationSvc) List(ctx context.Context, actor domain.Actor, userID string) ([]domain.Verification, error) {
	args := m.Called(ctx, actor, userID)
	return args.Get(0).([]domain.Verification), args.Error(1)
}

func (m *mockVerificationSvc) Get(ctx context.Context, actor domain.Actor, verificationID string) (*domain.Verification, error) {
	args := m.Called(ctx, actor, verificationID)
	if v, _ := args.Get(0).(*domain.Verification); v != nil {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockVerificationSvc) Update(ctx context.Context, actor domain.Actor, verificationID string, req domain.UpdateVerificationRequest) (*domain.Verification, error) {
	args := m.Called(ctx, actor, verificationID, req)
	if v, _ := args.Get(0).(*domain.Verification); v != nil {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockVerificationSvc) Cancel(ctx context.Context, actor domain.Actor, verificationID string) (*domain.Verification, error) {
	args := m.Called(ctx, actor, verificationID)
	if v, _ := args.Get(0).(*domain.Verification); v != nil {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockVerificationSvc) MarkInProgress(ctx context.Context, actor domain.Actor, verificationID string, notes *string) (*domain.Verification, error) {
	args := m.Called(ctx, actor, verificationID, notes)
	if v, _ := args.Get(0).(*domain.Verification); v != nil {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockVerificationSvc) MarkVerified(ctx context.Context, actor domain.Actor, verificationID string, notes *string) (*domain.Verification, error) {
	args := m.Called(ctx, actor, verificationID, notes)
	if v, _ := args.Get(0).(*domain.Verification); v != nil {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockVerificationSvc) MarkRejected(ctx context.Context, actor domain.Actor, verificationID string, reason string) (*domain.Verification, error) {
	args := m.Called(ctx, actor, verificationID, reason)
	if v, _ := args.Get(0).(*domain.Verification); v != nil {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockVerificationSvc) StatusSummary(ctx context.Context, actor domain.Actor) (*domain.VerificationSummary, error) {
	args := m.Called(ctx, actor)
	if s, _ := args.Get(0).(*domain.VerificationSummary); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func TestVerificationSubmit_MissingClaims(t *testing.T) {
	svc := &mockVerificationSvc{}
	h := NewVerificationHandler(svc)
	r := httptest.NewRequest(http.MethodPost, "/v1/users/verify", nil)
	rr := httptest.NewRecorder()
	h.Submit(rr, r)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestVerificationSubmit_ValidationFailure(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockVerificationSvc{}
	h := NewVerificationHandler(svc)
	body, _ := json.Marshal(domain.SubmitVerificationRequest{VerificationType: "identity"}) // missing document fields

	r := bearerReq(t, p, http.MethodPost, "/v1/users/verify", "u1", domain.RoleUser, body)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Submit), rr, r)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestVerificationSubmit_DuplicateConflict(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockVerificationSvc{}
	svc.On("Submit", mock.Anything, domain.Actor{UserID: "u1", Role: domain.RoleUser}, mock.Anything).
		Return(nil, fmt.Errorf("open verification exists: %w", domain.ErrConflict))
	h := NewVerificationHandler(svc)
	body, _ := json.Marshal(domain.SubmitVerificationRequest{
		VerificationType: "identity", DocumentType: "passport", DocumentURL: "https://cdn.example/p.jpg",
	})

	r := bearerReq(t, p, http.MethodPost, "/v1/users/verify", "u1", domain.RoleUser, body)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Submit), rr, r)

	assert.Equal(t, http.StatusConflict, rr.Code)
	svc.AssertExpectations(t)
}

func TestVerificationSubmit_HappyPath(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockVerificationSvc{}
	v := &domain.Verification{VerificationID: "v1", UserID: "u1", Status: domain.VerificationPending}
	svc.On("Submit", mock.Anything, mock.Anything, mock.Anything).Return(v, nil)
	h := NewVerificationHandler(svc)
	body, _ := json.Marshal(domain.SubmitVerificationRequest{
		VerificationType: "identity", DocumentType: "passport", DocumentURL: "https://cdn.example/p.jpg",
	})

	r := bearerReq(t, p, http.MethodPost, "/v1/users/verify", "u1", domain.RoleUser, body)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Submit), rr, r)

	assert.Equal(t, http.StatusCreated, rr.Code)
	var resp struct {
		Data domain.Verification `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, domain.VerificationPending, resp.Data.Status)
	svc.AssertExpectations(t)
}

func TestVerificationCancel_InvalidTransition(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockVerificationSvc{}
	svc.On("Cancel", mock.Anything, mock.Anything, "v1").
		Return(nil, fmt.Errorf("cancel from verified: %w", domain.ErrInvalidTransition))
	h := NewVerificationHandler(svc)

	r := bearerReq(t, p, http.MethodPost, "/v1/users/verifications/v1/cancel", "u1", domain.RoleUser, nil)
	r = withChiID(r, "v1")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Cancel), rr, r)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	svc.AssertExpectations(t)
}

func TestVerificationGet_NotOwner(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockVerificationSvc{}
	svc.On("Get", mock.Anything, domain.Actor{UserID: "u2", Role: domain.RoleUser}, "v1").
		Return(nil, fmt.Errorf("not the record owner: %w", domain.ErrForbidden))
	h := NewVerificationHandler(svc)

	r := bearerReq(t, p, http.MethodGet, "/v1/users/verifications/v1", "u2", domain.RoleUser, nil)
	r = withChiID(r, "v1")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Get), rr, r)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	svc.AssertExpectations(t)
}

func TestVerificationMarkRejected_RequiresReason(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockVerificationSvc{}
	h := NewVerificationHandler(svc)
	body, _ := json.Marshal(domain.RejectVerificationRequest{}) // empty reason

	r := bearerReq(t, p, http.MethodPost, "/v1/admin/verifications/v1/mark_rejected", "admin1", domain.RoleAdmin, body)
	r = withChiID(r, "v1")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.MarkRejected), rr, r)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	svc.AssertNotCalled(t, "MarkRejected")
}

func TestVerificationMarkVerified_HappyPath(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockVerificationSvc{}
	v := &domain.Verification{VerificationID: "v1", UserID: "u1", Status: domain.VerificationVerified}
	svc.On("MarkVerified", mock.Anything, domain.Actor{UserID: "admin1", Role: domain.RoleAdmin}, "v1", (*string)(nil)).
		Return(v, nil)
	h := NewVerificationHandler(svc)

	r := bearerReq(t, p, http.MethodPost, "/v1/admin/verifications/v1/mark_verified", "admin1", domain.RoleAdmin, nil)
	r = withChiID(r, "v1")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.MarkVerified), rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Data domain.Verification `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, domain.VerificationVerified, resp.Data.Status)
	svc.AssertExpectations(t)
}

func TestVerificationStatusSummary(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockVerificationSvc{}
	svc.On("StatusSummary", mock.Anything, domain.Actor{UserID: "admin1", Role: domain.RoleAdmin}).
		Return(&domain.VerificationSummary{Pending: 2, Verified: 5, Total: 7}, nil)
	h := NewVerificationHandler(svc)

	r := bearerReq(t, p, http.MethodGet, "/v1/admin/verifications/status_summary", "admin1", domain.RoleAdmin, nil)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.StatusSummary), rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Data domain.VerificationSummary `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, 7, resp.Data.Total)
	svc.AssertExpectations(t)
}

func TestVerificationListMine(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockVerificationSvc{}
	svc.On("List", mock.Anything, domain.Actor{UserID: "u1", Role: domain.RoleUser}, "u1").
		Return([]domain.Verification{{VerificationID: "v1"}, {VerificationID: "v2"}}, nil)
	h := NewVerificationHandler(svc)

	r := bearerReq(t, p, http.MethodGet, "/v1/users/verifications", "u1", domain.RoleUser, nil)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.ListMine), rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Data []domain.Verification `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Len(t, resp.Data, 2)
	svc.AssertExpectations(t)
}

func TestVerificationSubmit_InvalidBody(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockVerificationSvc{}
	h := NewVerificationHandler(svc)

	r := httptest.NewRequest(http.MethodPost, "/v1/users/verify", bytes.NewBufferString("not-json"))
	token, err := p.Sign("u1", "dev1", domain.RoleUser, "sess1")
	require.NoError(t, err)
	r.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Submit), rr, r)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
