package dynamo

// DynamoDB attribute names used in update expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldEnable           = "enable"
	fieldReaded           = "readed"
	fieldRefreshToken     = "refresh_token"
	fieldRefreshExpiresAt = "refresh_expires_at"
	fieldStatus           = "status"
	fieldVerified         = "verified"
	fieldVerifiedBy       = "verified_by"
	fieldVerifiedAt       = "verified_at"
	fieldExpiresAt        = "expires_at"
	fieldNotes            = "verification_notes"
)
