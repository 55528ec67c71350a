package domain

// Role names carried in JWT claims. Providers are regular users that also own
// catalog services; only admin unlocks the review endpoints.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Actor identifies the principal performing an operation. Handlers build it
// from JWT claims and pass it down explicitly; services never read ambient
// session state.
type Actor struct {
	UserID string
	Role   string
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }
