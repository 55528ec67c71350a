package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/servicelink-api/internal/config"
	"github.com/servicelink-api/internal/infrastructure/dynamo"
	"github.com/servicelink-api/internal/infrastructure/google"
	jwtinfra "github.com/servicelink-api/internal/infrastructure/jwt"
	s3infra "github.com/servicelink-api/internal/infrastructure/s3"
	"github.com/servicelink-api/internal/infrastructure/smtp"
	"github.com/servicelink-api/internal/infrastructure/sns"
	transporthttp "github.com/servicelink-api/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// JWT provider (optional — graceful fallback if keys are missing).
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else {
		slog.Warn("JWT provider not available", "error", err)
	}

	// S3 store.
	s3Client := s3infra.NewClient(cfg)
	s3Store := s3infra.NewStore(s3Client, cfg.S3BucketName)

	// SMTP mailer.
	mailer := smtp.NewMailer(cfg)

	// SNS SMS sender (optional — graceful fallback).
	var smsSender sns.SMSSender
	if sender, err := sns.NewSender(cfg); err == nil {
		smsSender = sender
	} else {
		slog.Warn("SNS sender not available", "error", err)
	}

	deps := &transporthttp.Deps{
		UserRepo:         dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
		SessionRepo:      dynamo.NewSessionRepo(dynamoClient, cfg.DynamoTables.Sessions),
		DeviceRepo:       dynamo.NewDeviceRepo(dynamoClient, cfg.DynamoTables.Devices),
		NotificationRepo: dynamo.NewNotificationRepo(dynamoClient, cfg.DynamoTables.Notifications),
		FileRepo:         dynamo.NewFileRepo(dynamoClient, cfg.DynamoTables.Files),
		VerificationRepo: dynamo.NewVerificationRepo(dynamoClient, cfg.DynamoTables.Verifications),
		AuthCodeRepo:     dynamo.NewAuthCodeRepo(dynamoClient, cfg.DynamoTables.AuthCodes),
		ServiceRepo:      dynamo.NewServiceRepo(dynamoClient, cfg.DynamoTables.Services),
		CategoryRepo:     dynamo.NewCategoryRepo(dynamoClient, cfg.DynamoTables.Categories),
		BidRepo:          dynamo.NewBidRepo(dynamoClient, cfg.DynamoTables.Bids),
		BookingRepo:      dynamo.NewBookingRepo(dynamoClient, cfg.DynamoTables.Bookings),
		ThreadRepo:       dynamo.NewThreadRepo(dynamoClient, cfg.DynamoTables.Threads),
		MessageRepo:      dynamo.NewMessageRepo(dynamoClient, cfg.DynamoTables.Messages),
		AppVersionRepo:   dynamo.NewAppVersionRepo(dynamoClient, cfg.DynamoTables.AppVersions),
		Transactor:       dynamo.NewTransactor(dynamoClient),
		S3Store:          s3Store,
		Mailer:           mailer,
		SMSSender:        smsSender,
		JWTProvider:      jwtProvider,
		GoogleVerifier:   google.NewVerifier(cfg.GoogleClientID),
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("forced shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
