package request_models

import "github.com/google/uuid"

// Caller is the resolved identity of the current request. Exactly one of
// OwnerID/SessionID acts as the ownership discriminator recorded on carts and
// purchase intents: OwnerID when authenticated, SessionID otherwise.
type Caller struct {
	OwnerID         *uuid.UUID
	SessionID       string
	IsAuthenticated bool
	IsStaff         bool
}

// Key is the owner-channel key used for event fan-out.
func (c Caller) Key() string {
	if c.IsAuthenticated && c.OwnerID != nil {
		return "owner:" + c.OwnerID.String()
	}
	return "session:" + c.SessionID
}

// Matches reports whether the stored discriminator pair equals this caller's
// discriminator. The comparison is exact against the single stored field, no
// either/or leniency.
func (c Caller) Matches(ownerID *uuid.UUID, sessionID *string) bool {
	if ownerID != nil {
		return c.OwnerID != nil && *c.OwnerID == *ownerID
	}
	if sessionID != nil {
		return c.SessionID != "" && c.SessionID == *sessionID
	}
	return false
}
