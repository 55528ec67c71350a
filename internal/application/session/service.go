package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/servicelink-api/internal/domain"
	"github.com/servicelink-api/internal/infrastructure/google"
	pkgdevice "github.com/servicelink-api/internal/pkg/device"
	"github.com/servicelink-api/internal/pkg/id"
	pkgtoken "github.com/servicelink-api/internal/pkg/token"
	"golang.org/x/crypto/bcrypt"
)

// GooglePayload re-exports the verified Google claims so callers and tests
// don't import the infrastructure package directly.
type GooglePayload = google.Payload

type LoginRequest struct {
	Username   string  `json:"username" validate:"required"`
	Password   string  `json:"password" validate:"required"`
	DeviceUUID *string `json:"device_uuid"`
}

type GoogleLoginRequest struct {
	IDToken    string  `json:"id_token" validate:"required"`
	DeviceUUID *string `json:"device_uuid"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type LoginResult struct {
	Bearer       string
	RefreshToken string
	Session      *domain.Session
}

type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	LoginWithGoogle(ctx context.Context, idToken string, deviceUUID *string) (*LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
	GetCurrent(ctx context.Context, sessionID string) (*domain.Session, error)
	Refresh(ctx context.Context, refreshToken string) (bearer, newRefreshToken string, err error)
}

type userStore interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type sessionStore interface {
	Put(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	GetByRefreshToken(ctx context.Context, token string) (*domain.Session, error)
	RotateRefreshToken(ctx context.Context, sessionID, newToken string, newExpiry int64) error
	Update(ctx context.Context, sessionID string, updates map[string]interface{}) error
}

type jwtSigner interface {
	Sign(userID, deviceID, role, sessionID string) (string, error)
}

type googleVerifier interface {
	Verify(ctx context.Context, token string) (*GooglePayload, error)
}

type service struct {
	userRepo        userStore
	sessionRepo     sessionStore
	deviceRepo      pkgdevice.Store
	jwtProvider     jwtSigner
	googleVerifier  googleVerifier
	refreshTokenDur time.Duration
}

type ServiceDeps struct {
	UserRepo        userStore
	SessionRepo     sessionStore
	DeviceRepo      pkgdevice.Store
	JWTProvider     jwtSigner
	GoogleVerifier  googleVerifier
	RefreshTokenDur time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{
		userRepo:        deps.UserRepo,
		sessionRepo:     deps.SessionRepo,
		deviceRepo:      deps.DeviceRepo,
		jwtProvider:     deps.JWTProvider,
		googleVerifier:  deps.GoogleVerifier,
		refreshTokenDur: deps.RefreshTokenDur,
	}
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	u, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		u, err = s.userRepo.GetByEmail(ctx, req.Username)
		if err != nil {
			return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
		}
	}
	if u.Enable != 1 {
		return nil, fmt.Errorf("account disabled: %w", domain.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	return s.openSession(ctx, u, req.DeviceUUID)
}

// LoginWithGoogle signs a user in with a Google ID token, provisioning the
// account on first sign-in and auto-linking self-registered accounts that
// share the verified e-mail.
func (s *service) LoginWithGoogle(ctx context.Context, idToken string, deviceUUID *string) (*LoginResult, error) {
	p, err := s.googleVerifier.Verify(ctx, idToken)
	if err != nil {
		return nil, err
	}
	if !p.EmailVerified || p.Email == "" || p.Sub == "" {
		return nil, fmt.Errorf("google token missing verified identity: %w", domain.ErrUnauthorized)
	}

	u, err := s.userRepo.GetByEmail(ctx, p.Email)
	if err != nil {
		u, err = s.provisionGoogleUser(ctx, p)
		if err != nil {
			return nil, err
		}
		return s.openSession(ctx, u, deviceUUID)
	}

	if u.Enable != 1 {
		return nil, fmt.Errorf("account disabled: %w", domain.ErrUnauthorized)
	}
	switch {
	case u.GoogleSub == p.Sub:
		// already linked
	case u.GoogleSub == "":
		// First Google sign-in on an existing account. Only self-registered
		// accounts (ones holding a password) may auto-link.
		if u.PasswordHash == "" {
			return nil, fmt.Errorf("account cannot be linked to google sign-in: %w", domain.ErrUnauthorized)
		}
		if err := s.userRepo.Update(ctx, u.UserID, map[string]interface{}{
			"google_sub":      p.Sub,
			"email_confirmed": true,
		}); err != nil {
			return nil, err
		}
		u.GoogleSub = p.Sub
		u.EmailConfirmed = true
	default:
		return nil, fmt.Errorf("google account does not match linked account: %w", domain.ErrUnauthorized)
	}
	return s.openSession(ctx, u, deviceUUID)
}

func (s *service) provisionGoogleUser(ctx context.Context, p *GooglePayload) (*domain.User, error) {
	username, err := s.deriveUsername(ctx, p.Email)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	u := &domain.User{
		UserID:         id.New(),
		Username:       username,
		Email:          p.Email,
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		Role:           domain.RoleUser,
		AuthProvider:   domain.AuthProviderGoogle,
		GoogleSub:      p.Sub,
		EmailConfirmed: true,
		Enable:         1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.userRepo.Put(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) Logout(ctx context.Context, sessionID string) error {
	return s.sessionRepo.Update(ctx, sessionID, map[string]interface{}{"enable": false})
}

func (s *service) GetCurrent(ctx context.Context, sessionID string) (*domain.Session, error) {
	sess, err := s.sessionRepo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Enable {
		return nil, fmt.Errorf("session expired: %w", domain.ErrUnauthorized)
	}
	u, err := s.userRepo.Get(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	sess.User = u
	return sess, nil
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	sess, err := s.sessionRepo.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		return "", "", fmt.Errorf("invalid refresh token: %w", domain.ErrUnauthorized)
	}
	if sess.RefreshExpiresAt < time.Now().Unix() {
		return "", "", fmt.Errorf("refresh token expired: %w", domain.ErrUnauthorized)
	}
	newToken, err := pkgtoken.NewRefreshToken()
	if err != nil {
		return "", "", err
	}
	newExpiry := time.Now().Add(s.refreshTokenDur).Unix()
	if err := s.sessionRepo.RotateRefreshToken(ctx, sess.SessionID, newToken, newExpiry); err != nil {
		return "", "", err
	}
	u, err := s.userRepo.Get(ctx, sess.UserID)
	if err != nil {
		return "", "", err
	}
	bearer, err := s.jwtProvider.Sign(u.UserID, sess.DeviceID, u.Role, sess.SessionID)
	if err != nil {
		return "", "", err
	}
	return bearer, newToken, nil
}

func (s *service) openSession(ctx context.Context, u *domain.User, deviceUUID *string) (*LoginResult, error) {
	dev, err := pkgdevice.Resolve(ctx, s.deviceRepo, deviceUUID, u.UserID)
	if err != nil {
		return nil, err
	}
	refreshToken, err := pkgtoken.NewRefreshToken()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	sess := &domain.Session{
		SessionID:        id.New(),
		UserID:           u.UserID,
		DeviceID:         dev.DeviceID,
		Enable:           true,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: now.Add(s.refreshTokenDur).Unix(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.sessionRepo.Put(ctx, sess); err != nil {
		return nil, err
	}
	bearer, err := s.jwtProvider.Sign(u.UserID, dev.DeviceID, u.Role, sess.SessionID)
	if err != nil {
		return nil, err
	}
	sess.User = u
	return &LoginResult{Bearer: bearer, RefreshToken: refreshToken, Session: sess}, nil
}

// deriveUsername builds a unique username from the e-mail local part,
// suffixing 1..99 on collision.
func (s *service) deriveUsername(ctx context.Context, email string) (string, error) {
	base := sanitizeUsername(strings.SplitN(email, "@", 2)[0])
	if base == "" {
		base = "user"
	}
	if _, err := s.userRepo.GetByUsername(ctx, base); err != nil {
		return base, nil
	}
	for i := 1; i < 100; i++ {
		candidate := fmt.Sprintf("%s%d", base, i)
		if _, err := s.userRepo.GetByUsername(ctx, candidate); err != nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("could not derive a free username for %s: %w", email, domain.ErrConflict)
}

func sanitizeUsername(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}
