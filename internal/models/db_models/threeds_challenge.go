package db_models

import "github.com/google/uuid"

type ThreeDSecureStatus string

const (
	ThreeDSStatusPending       ThreeDSecureStatus = "pending"
	ThreeDSStatusAuthenticated ThreeDSecureStatus = "authenticated"
	ThreeDSStatusFailed        ThreeDSecureStatus = "failed"
)

// ThreeDSecureChallenge gates a transaction's confirmation. "pending" is a
// legitimate resting state while the payer completes the out-of-band
// challenge, not a failure.
type ThreeDSecureChallenge struct {
	BaseModel
	TransactionID uuid.UUID `gorm:"uniqueIndex"`

	Status            ThreeDSecureStatus `gorm:"index;default:'pending'"`
	ChallengeRequired bool               `gorm:"default:true"`

	ProviderReference string
	RedirectURL       string
	ReturnURL         string

	CompletedAt *int64
}
