package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/servicelink-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSyncSvc struct{ mock.Mock }

func (m *mockSyncSvc) Upload(ctx context.Context, actor domain.Actor, req domain.SyncUploadRequest) (*domain.SyncUploadResult, error) {
	args := m.Called(ctx, actor, req)
	if r, _ := args.Get(0).(*domain.SyncUploadResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSyncSvc) Profile(ctx context.Context, actor domain.Actor) (*domain.SyncProfile, error) {
	args := m.Called(ctx, actor)
	if p, _ := args.Get(0).(*domain.SyncProfile); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSyncSvc) Services(ctx context.Context, filter domain.ServiceFilter) ([]domain.Service, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Service), args.Error(1)
}

func TestSyncUpload_MissingClaims(t *testing.T) {
	svc := &mockSyncSvc{}
	h := NewSyncHandler(svc)
	r := httptest.NewRequest(http.MethodPost, "/v1/sync/upload", nil)
	rr := httptest.NewRecorder()
	h.Upload(rr, r)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestSyncUpload_InvalidBody(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockSyncSvc{}
	h := NewSyncHandler(svc)

	r := bearerReq(t, p, http.MethodPost, "/v1/sync/upload", "u1", domain.RoleUser, []byte("not-json"))
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Upload), rr, r)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	svc.AssertNotCalled(t, "Upload")
}

func TestSyncUpload_EmptyBatchRejected(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockSyncSvc{}
	svc.On("Upload", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("empty batch: %w", domain.ErrBadRequest))
	h := NewSyncHandler(svc)
	body, _ := json.Marshal(domain.SyncUploadRequest{})

	r := bearerReq(t, p, http.MethodPost, "/v1/sync/upload", "u1", domain.RoleUser, body)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Upload), rr, r)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	svc.AssertExpectations(t)
}

func TestSyncUpload_PartialFailureStays200(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockSyncSvc{}
	result := &domain.SyncUploadResult{
		Success: false,
		Processed: domain.SyncProcessed{
			Bids:     []domain.SyncProcessedItem{{ClientTempID: "tmp-1", ServerID: "b1"}},
			Bookings: []domain.SyncProcessedItem{},
			Messages: []domain.SyncProcessedItem{},
		},
		Errors: []domain.SyncItemError{
			{ClientTempID: "tmp-2", ItemType: domain.SyncItemBid, Reason: "service not found"},
		},
		SyncTimestamp: time.Now().UTC(),
	}
	svc.On("Upload", mock.Anything, domain.Actor{UserID: "u1", Role: domain.RoleUser}, mock.Anything).
		Return(result, nil)
	h := NewSyncHandler(svc)
	body, _ := json.Marshal(domain.SyncUploadRequest{
		Bids: []domain.SyncBidItem{
			{ClientTempID: "tmp-1", ServiceID: "s1", Amount: 10},
			{ClientTempID: "tmp-2", ServiceID: "missing", Amount: 5},
		},
	})

	r := bearerReq(t, p, http.MethodPost, "/v1/sync/upload", "u1", domain.RoleUser, body)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Upload), rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Message string                  `json:"message"`
		Data    domain.SyncUploadResult `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.False(t, resp.Data.Success)
	assert.Len(t, resp.Data.Processed.Bids, 1)
	assert.Len(t, resp.Data.Errors, 1)
	assert.Equal(t, "sync completed with errors", resp.Message)
	svc.AssertExpectations(t)
}

func TestSyncUpload_AllProcessed(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockSyncSvc{}
	result := &domain.SyncUploadResult{
		Success: true,
		Processed: domain.SyncProcessed{
			Bids:     []domain.SyncProcessedItem{},
			Bookings: []domain.SyncProcessedItem{},
			Messages: []domain.SyncProcessedItem{{ClientTempID: "tmp-9", ServerID: "m1"}},
		},
		Errors:        []domain.SyncItemError{},
		SyncTimestamp: time.Now().UTC(),
	}
	svc.On("Upload", mock.Anything, mock.Anything, mock.Anything).Return(result, nil)
	h := NewSyncHandler(svc)
	body, _ := json.Marshal(domain.SyncUploadRequest{
		Messages: []domain.SyncMessageItem{{ClientTempID: "tmp-9", ThreadID: "t1", Content: "hi"}},
	})

	r := bearerReq(t, p, http.MethodPost, "/v1/sync/upload", "u1", domain.RoleUser, body)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Upload), rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Message string                  `json:"message"`
		Data    domain.SyncUploadResult `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.True(t, resp.Data.Success)
	assert.Equal(t, "m1", resp.Data.Processed.Messages[0].ServerID)
	assert.Equal(t, "sync complete", resp.Message)
	svc.AssertExpectations(t)
}

func TestSyncProfile(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockSyncSvc{}
	svc.On("Profile", mock.Anything, domain.Actor{UserID: "u1", Role: domain.RoleUser}).
		Return(&domain.SyncProfile{
			User:          &domain.User{UserID: "u1", Username: "alice"},
			Verifications: []domain.Verification{{VerificationID: "v1"}},
		}, nil)
	h := NewSyncHandler(svc)

	r := bearerReq(t, p, http.MethodGet, "/v1/sync/profile", "u1", domain.RoleUser, nil)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Profile), rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Data domain.SyncProfile `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "alice", resp.Data.User.Username)
	assert.Len(t, resp.Data.Verifications, 1)
	svc.AssertExpectations(t)
}

func TestSyncServices_FilterParsing(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockSyncSvc{}
	since := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	svc.On("Services", mock.Anything, mock.MatchedBy(func(f domain.ServiceFilter) bool {
		return f.CategoryID == "c1" && f.Query == "plumb" &&
			f.UpdatedSince != nil && f.UpdatedSince.Equal(since)
	})).Return([]domain.Service{{ServiceID: "s1"}}, nil)
	h := NewSyncHandler(svc)

	target := "/v1/sync/services?category=c1&q=plumb&updated_after=2025-06-01T00:00:00Z"
	r := bearerReq(t, p, http.MethodGet, target, "u1", domain.RoleUser, nil)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Services), rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestSyncServices_BadTimestamp(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockSyncSvc{}
	h := NewSyncHandler(svc)

	r := bearerReq(t, p, http.MethodGet, "/v1/sync/services?updated_after=yesterday", "u1", domain.RoleUser, nil)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Services), rr, r)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	svc.AssertNotCalled(t, "Services")
}
