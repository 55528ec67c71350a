package domain

// Auth code purposes.
const (
	PurposeOTP   = "otp"
	PurposeEmail = "email"
	PurposePhone = "phone"
)

// AuthCode stores short-lived OTP and confirmation tokens for password
// recovery and contact confirmation.
// PK: user_id, SK: purpose ("otp" | "email" | "phone").
// ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type AuthCode struct {
	UserID    string `json:"user_id" dynamodbav:"user_id"`
	Purpose   string `json:"purpose" dynamodbav:"purpose"`
	Code      string `json:"code" dynamodbav:"code"`
	ExpiresAt int64  `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
}
