package domain

// Category groups catalog services (admin-managed).
type Category struct {
	CategoryID string `json:"id" dynamodbav:"category_id"`
	Name       string `json:"name" dynamodbav:"name"`
	Enable     bool   `json:"enable" dynamodbav:"enable"`
}

type CategoryInput struct {
	Name   string `json:"name" validate:"required"`
	Enable *bool  `json:"enable"`
}
