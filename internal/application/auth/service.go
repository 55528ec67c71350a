package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/servicelink-api/internal/domain"
	pkgdevice "github.com/servicelink-api/internal/pkg/device"
	"github.com/servicelink-api/internal/pkg/id"
	pkgtoken "github.com/servicelink-api/internal/pkg/token"
	"golang.org/x/crypto/bcrypt"
)

const fieldPasswordHash = "password_hash"

type PasswordRecoveryRequest struct {
	Email       *string `json:"email"`
	PhoneNumber *string `json:"phone_number"`
}

type ValidateOTPRequest struct {
	OTP         string  `json:"otp" validate:"required"`
	NewPassword string  `json:"new_password" validate:"required,min=8"`
	DeviceUUID  *string `json:"device_uuid"`
	Email       *string `json:"email"`
}

// OTPLoginResult is what a successful OTP validation yields: the password has
// been reset and a fresh session opened on the requesting device.
type OTPLoginResult struct {
	Bearer       string
	RefreshToken string
	Session      *domain.Session
}

type Service interface {
	RequestPasswordRecovery(ctx context.Context, req PasswordRecoveryRequest) error
	ValidateOTP(ctx context.Context, req ValidateOTPRequest) (*OTPLoginResult, error)
	RequestEmailConfirmation(ctx context.Context, userID string) error
	ValidateEmailToken(ctx context.Context, userID, token string) error
	RequestPhoneConfirmation(ctx context.Context, userID string) error
	ValidatePhoneOTP(ctx context.Context, userID, otp string) error
}

type codeStore interface {
	Put(ctx context.Context, c *domain.AuthCode) error
	Get(ctx context.Context, userID, purpose string) (*domain.AuthCode, error)
	Delete(ctx context.Context, userID, purpose string) error
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type sessionStore interface {
	Put(ctx context.Context, s *domain.Session) error
	SoftDeleteByUser(ctx context.Context, userID string) error
}

type mailer interface {
	SendEmail(to, subject, body string) error
}

type smsSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

type jwtSigner interface {
	Sign(userID, deviceID, role, sessionID string) (string, error)
}

type service struct {
	codeRepo        codeStore
	userRepo        userStore
	sessionRepo     sessionStore
	deviceRepo      pkgdevice.Store
	mailer          mailer
	smsSender       smsSender
	jwtProvider     jwtSigner
	refreshTokenDur time.Duration
}

type ServiceDeps struct {
	CodeRepo        codeStore
	UserRepo        userStore
	SessionRepo     sessionStore
	DeviceRepo      pkgdevice.Store
	Mailer          mailer
	SMSSender       smsSender
	JWTProvider     jwtSigner
	RefreshTokenDur time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{
		codeRepo:        deps.CodeRepo,
		userRepo:        deps.UserRepo,
		sessionRepo:     deps.SessionRepo,
		deviceRepo:      deps.DeviceRepo,
		mailer:          deps.Mailer,
		smsSender:       deps.SMSSender,
		jwtProvider:     deps.JWTProvider,
		refreshTokenDur: deps.RefreshTokenDur,
	}
}

func (s *service) RequestPasswordRecovery(ctx context.Context, req PasswordRecoveryRequest) error {
	if req.Email == nil {
		if req.PhoneNumber != nil {
			return fmt.Errorf("phone recovery not supported; provide email: %w", domain.ErrBadRequest)
		}
		return fmt.Errorf("email or phone_number required: %w", domain.ErrBadRequest)
	}
	u, err := s.userRepo.GetByEmail(ctx, *req.Email)
	if err != nil {
		return fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}

	// Cooldown: one live OTP at a time.
	if existing, err := s.codeRepo.Get(ctx, u.UserID, domain.PurposeOTP); err == nil &&
		existing.ExpiresAt > time.Now().Unix() {
		return fmt.Errorf("an OTP was already sent recently: %w", domain.ErrConflict)
	}

	otp, err := numericCode()
	if err != nil {
		return err
	}
	c := &domain.AuthCode{
		UserID:    u.UserID,
		Purpose:   domain.PurposeOTP,
		Code:      otp,
		ExpiresAt: time.Now().Add(15 * time.Minute).Unix(),
	}
	if err := s.codeRepo.Put(ctx, c); err != nil {
		return err
	}
	return s.mailer.SendEmail(u.Email, "Password Recovery OTP", "Your OTP: "+otp)
}

func (s *service) ValidateOTP(ctx context.Context, req ValidateOTPRequest) (*OTPLoginResult, error) {
	if req.Email == nil {
		return nil, fmt.Errorf("email required to validate OTP: %w", domain.ErrBadRequest)
	}
	u, err := s.userRepo.GetByEmail(ctx, *req.Email)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	c, err := s.codeRepo.Get(ctx, u.UserID, domain.PurposeOTP)
	if err != nil {
		return nil, fmt.Errorf("OTP not found: %w", domain.ErrNotFound)
	}
	if c.Code != req.OTP {
		return nil, fmt.Errorf("invalid OTP: %w", domain.ErrUnauthorized)
	}
	if c.ExpiresAt < time.Now().Unix() {
		return nil, fmt.Errorf("OTP expired: %w", domain.ErrUnauthorized)
	}
	if err := s.codeRepo.Delete(ctx, u.UserID, domain.PurposeOTP); err != nil {
		slog.Warn("failed to delete auth code", "user_id", u.UserID, "err", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, u.UserID, map[string]interface{}{fieldPasswordHash: string(hash)}); err != nil {
		return nil, err
	}

	dev, err := pkgdevice.Resolve(ctx, s.deviceRepo, req.DeviceUUID, u.UserID)
	if err != nil {
		return nil, err
	}
	// A password reset invalidates every open session.
	if err := s.sessionRepo.SoftDeleteByUser(ctx, u.UserID); err != nil {
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
	return &OTPLoginResult{Bearer: bearer, RefreshToken: refreshToken, Session: sess}, nil
}

func (s *service) RequestEmailConfirmation(ctx context.Context, userID string) error {
	token, err := alphaToken(32)
	if err != nil {
		return err
	}
	c := &domain.AuthCode{
		UserID:    userID,
		Purpose:   domain.PurposeEmail,
		Code:      token,
		ExpiresAt: time.Now().Add(24 * time.Hour).Unix(),
	}
	if err := s.codeRepo.Put(ctx, c); err != nil {
		return err
	}
	u, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return err
	}
	return s.mailer.SendEmail(u.Email, "Confirm your email", "Token: "+token)
}

func (s *service) ValidateEmailToken(ctx context.Context, userID, token string) error {
	c, err := s.codeRepo.Get(ctx, userID, domain.PurposeEmail)
	if err != nil {
		return fmt.Errorf("token not found: %w", domain.ErrNotFound)
	}
	if c.Code != token {
		return fmt.Errorf("invalid token: %w", domain.ErrUnauthorized)
	}
	if c.ExpiresAt < time.Now().Unix() {
		return fmt.Errorf("token expired: %w", domain.ErrUnauthorized)
	}
	if err := s.codeRepo.Delete(ctx, userID, domain.PurposeEmail); err != nil {
		slog.Warn("failed to delete auth code", "user_id", userID, "err", err)
	}
	return s.userRepo.Update(ctx, userID, map[string]interface{}{"email_confirmed": true})
}

func (s *service) RequestPhoneConfirmation(ctx context.Context, userID string) error {
	u, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	if u.Phone == nil {
		return fmt.Errorf("no phone number on account: %w", domain.ErrBadRequest)
	}
	otp, err := numericCode()
	if err != nil {
		return err
	}
	c := &domain.AuthCode{
		UserID:    userID,
		Purpose:   domain.PurposePhone,
		Code:      otp,
		ExpiresAt: time.Now().Add(15 * time.Minute).Unix(),
	}
	if err := s.codeRepo.Put(ctx, c); err != nil {
		return err
	}
	return s.smsSender.SendSMS(ctx, *u.Phone, "Your verification code: "+otp)
}

func (s *service) ValidatePhoneOTP(ctx context.Context, userID, otp string) error {
	c, err := s.codeRepo.Get(ctx, userID, domain.PurposePhone)
	if err != nil {
		return fmt.Errorf("OTP not found: %w", domain.ErrNotFound)
	}
	if c.Code != otp {
		return fmt.Errorf("invalid OTP: %w", domain.ErrUnauthorized)
	}
	if c.ExpiresAt < time.Now().Unix() {
		return fmt.Errorf("OTP expired: %w", domain.ErrUnauthorized)
	}
	if err := s.codeRepo.Delete(ctx, userID, domain.PurposePhone); err != nil {
		slog.Warn("failed to delete auth code", "user_id", userID, "err", err)
	}
	return s.userRepo.Update(ctx, userID, map[string]interface{}{"phone_confirmed": true})
}

func numericCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(999999))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func alphaToken(n int) (string, error) {
	const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
		if err != nil {
			return "", err
		}
		b[i] = letters[idx.Int64()]
	}
	return string(b), nil
}
