package domain

import "time"

// Verification statuses. Terminal states (rejected, cancelled, expired) are
// retained for audit and never deleted; verified is terminal until expiry.
const (
	VerificationPending    = "pending"
	VerificationInProgress = "in_progress"
	VerificationVerified   = "verified"
	VerificationRejected   = "rejected"
	VerificationCancelled  = "cancelled"
	VerificationExpired    = "expired"
)

// Verification actions. Each maps a source status to a target status via
// verificationTransitions; anything not in the table is an invalid transition.
const (
	ActionCancel         = "cancel"
	ActionMarkInProgress = "mark_in_progress"
	ActionMarkVerified   = "mark_verified"
	ActionMarkRejected   = "mark_rejected"
	ActionExpire         = "expire"
)

type verificationEdge struct {
	From   string
	Action string
}

// verificationTransitions is the single source of truth for the verification
// state machine. Declared as a table so the legal-transition set is testable
// without walking handler code.
var verificationTransitions = map[verificationEdge]string{
	{VerificationPending, ActionCancel}:          VerificationCancelled,
	{VerificationInProgress, ActionCancel}:       VerificationCancelled,
	{VerificationPending, ActionMarkInProgress}:  VerificationInProgress,
	{VerificationInProgress, ActionMarkVerified}: VerificationVerified,
	{VerificationPending, ActionMarkRejected}:    VerificationRejected,
	{VerificationInProgress, ActionMarkRejected}: VerificationRejected,
	{VerificationVerified, ActionExpire}:         VerificationExpired,
}

// NextVerificationStatus resolves the target status for (from, action).
// The second return is false when the transition is not allowed.
func NextVerificationStatus(from, action string) (string, bool) {
	to, ok := verificationTransitions[verificationEdge{From: from, Action: action}]
	return to, ok
}

// VerificationTerminal reports whether status permits no further owner or
// admin action (expiry of verified records is system-driven).
func VerificationTerminal(status string) bool {
	switch status {
	case VerificationRejected, VerificationCancelled, VerificationExpired:
		return true
	}
	return false
}

// Verification types and document types accepted on submission.
var (
	VerificationTypes = []string{"identity", "address", "professional", "educational"}
	DocumentTypes     = []string{"passport", "national_id", "drivers_license", "utility_bill", "certificate", "license", "diploma"}
)

// Verification tracks the review lifecycle of a user-submitted document.
type Verification struct {
	VerificationID      string     `json:"id" dynamodbav:"verification_id"`
	UserID              string     `json:"user_id" dynamodbav:"user_id"`
	VerificationType    string     `json:"verification_type" dynamodbav:"verification_type"`
	DocumentType        string     `json:"document_type" dynamodbav:"document_type"`
	DocumentURL         string     `json:"document_url" dynamodbav:"document_url"`
	DocumentBackURL     *string    `json:"document_back_url,omitempty" dynamodbav:"document_back_url"`
	DocumentNumber      *string    `json:"document_number,omitempty" dynamodbav:"document_number"`
	Status              string     `json:"status" dynamodbav:"status"`
	VerifiedBy          *string    `json:"verified_by,omitempty" dynamodbav:"verified_by"`
	VerificationNotes   *string    `json:"verification_notes,omitempty" dynamodbav:"verification_notes"`
	ExternalReferenceID *string    `json:"external_reference_id,omitempty" dynamodbav:"external_reference_id"`
	CreatedAt           time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt           time.Time  `json:"updated" dynamodbav:"updated_at"`
	VerifiedAt          *time.Time `json:"verified_at,omitempty" dynamodbav:"verified_at"`
	ExpiresAt           *time.Time `json:"expires_at,omitempty" dynamodbav:"expires_at"`
}

type SubmitVerificationRequest struct {
	VerificationType    string  `json:"verification_type" validate:"required"`
	DocumentType        string  `json:"document_type" validate:"required"`
	DocumentURL         string  `json:"document_url" validate:"required"`
	DocumentBackURL     *string `json:"document_back_url"`
	DocumentNumber      *string `json:"document_number"`
	ExternalReferenceID *string `json:"external_reference_id"`
}

// UpdateVerificationRequest replaces document fields on a pending record.
type UpdateVerificationRequest struct {
	DocumentURL     *string `json:"document_url"`
	DocumentBackURL *string `json:"document_back_url"`
	DocumentNumber  *string `json:"document_number"`
}

type RejectVerificationRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// VerificationSummary holds per-status record counts for the admin dashboard.
type VerificationSummary struct {
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Verified   int `json:"verified"`
	Rejected   int `json:"rejected"`
	Cancelled  int `json:"cancelled"`
	Expired    int `json:"expired"`
	Total      int `json:"total"`
}
