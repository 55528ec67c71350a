package domain

import "time"

// Service is a provider's catalog entry that bids and bookings reference.
type Service struct {
	ServiceID   string    `json:"id" dynamodbav:"service_id"`
	ProviderID  string    `json:"provider_id" dynamodbav:"provider_id"`
	CategoryID  string    `json:"category_id" dynamodbav:"category_id"`
	Title       string    `json:"title" dynamodbav:"title"`
	Description string    `json:"description" dynamodbav:"description"`
	Price       float64   `json:"price" dynamodbav:"price"`
	Active      bool      `json:"active" dynamodbav:"active"`
	CreatedAt   time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt   time.Time `json:"updated" dynamodbav:"updated_at"`
}

type CreateServiceRequest struct {
	CategoryID  string  `json:"category_id" validate:"required"`
	Title       string  `json:"title" validate:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" validate:"required,gt=0"`
}

type UpdateServiceRequest struct {
	CategoryID  *string  `json:"category_id"`
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price" validate:"omitempty,gt=0"`
	Active      *bool    `json:"active"`
}

// ServiceFilter narrows catalog listings; UpdatedSince enables incremental
// download by offline clients.
type ServiceFilter struct {
	CategoryID   string
	Query        string
	UpdatedSince *time.Time
}
