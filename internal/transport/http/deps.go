package http

import (
	"github.com/servicelink-api/internal/infrastructure/dynamo"
	"github.com/servicelink-api/internal/infrastructure/google"
	jwtinfra "github.com/servicelink-api/internal/infrastructure/jwt"
	s3infra "github.com/servicelink-api/internal/infrastructure/s3"
	"github.com/servicelink-api/internal/infrastructure/smtp"
	"github.com/servicelink-api/internal/infrastructure/sns"
)

// Deps holds all infrastructure dependencies for the router. Services narrow
// these to the store interfaces they declare themselves.
type Deps struct {
	UserRepo         *dynamo.UserRepo
	SessionRepo      *dynamo.SessionRepo
	DeviceRepo       *dynamo.DeviceRepo
	NotificationRepo *dynamo.NotificationRepo
	FileRepo         *dynamo.FileRepo
	VerificationRepo *dynamo.VerificationRepo
	AuthCodeRepo     *dynamo.AuthCodeRepo
	ServiceRepo      *dynamo.ServiceRepo
	CategoryRepo     *dynamo.CategoryRepo
	BidRepo          *dynamo.BidRepo
	BookingRepo      *dynamo.BookingRepo
	ThreadRepo       *dynamo.ThreadRepo
	MessageRepo      *dynamo.MessageRepo
	AppVersionRepo   *dynamo.AppVersionRepo
	Transactor       *dynamo.Transactor

	S3Store        *s3infra.Store
	Mailer         smtp.Mailer
	SMSSender      sns.SMSSender
	JWTProvider    *jwtinfra.Provider
	GoogleVerifier *google.Verifier
}
