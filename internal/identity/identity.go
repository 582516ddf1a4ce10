// Package identity is the boundary to the identity/document platform:
// account creation, federated-session reuse, email lookups and the durable
// profile document. The rest of the system only sees the faults taxonomy,
// never platform error codes.
package identity

import (
	"context"
	"time"
)

// Session describes an authenticated federated identity (e.g. a Google
// sign-in completed by the shell before the wizard runs).
type Session struct {
	SubjectID   string
	Email       string
	DisplayName string
}

// Profile is the durable account document written once the wizard
// completes, keyed by the identity's subject identifier.
type Profile struct {
	LastName        string     `json:"nom"`
	FirstName       string     `json:"prenom"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone"`
	Birthday        *time.Time `json:"birthday"`
	PlanID          string     `json:"planId"`
	PlanName        string     `json:"planName"`
	PlanPrice       float64    `json:"planPrice"`
	PaymentIntentID string     `json:"paymentIntentId"`
	AuthProvider    string     `json:"authProvider"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// Service is the identity-platform port consumed by the wizard.
type Service interface {
	// CheckEmailExists reports whether an identity record already uses
	// email. Lookup failures are treated as "unknown" and reported false;
	// uniqueness is ultimately enforced at creation time.
	CheckEmailExists(ctx context.Context, email string) (bool, error)

	// CreateUser registers a credentialed identity and returns its
	// subject identifier. Fails with KindDuplicate, KindExternalPlatform
	// (weak password, invalid email) per the platform's verdict.
	CreateUser(ctx context.Context, email, password string) (string, error)

	// CurrentSession returns the active federated session, or a
	// KindNotAuthenticated fault when none exists.
	CurrentSession(ctx context.Context) (*Session, error)

	// SaveProfile writes the profile document for subjectID.
	SaveProfile(ctx context.Context, subjectID string, profile Profile) error
}
