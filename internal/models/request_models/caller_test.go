package request_models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestMatchesIsExactPerDiscriminator(t *testing.T) {
	ownerID := uuid.New()
	otherID := uuid.New()
	session := "sess-1"

	owner := Caller{OwnerID: &ownerID, IsAuthenticated: true}
	guest := Caller{SessionID: session}

	assert.True(t, owner.Matches(&ownerID, nil))
	assert.False(t, owner.Matches(&otherID, nil))
	// An owner does not match a session-keyed record, even their own old one.
	assert.False(t, owner.Matches(nil, &session))

	assert.True(t, guest.Matches(nil, &session))
	assert.False(t, guest.Matches(&ownerID, nil))

	// A record with no discriminator matches nobody.
	assert.False(t, owner.Matches(nil, nil))
	assert.False(t, guest.Matches(nil, nil))
}

func TestKeyPrefixesByIdentity(t *testing.T) {
	ownerID := uuid.New()

	owner := Caller{OwnerID: &ownerID, IsAuthenticated: true}
	guest := Caller{SessionID: "sess-1"}

	assert.Equal(t, "owner:"+ownerID.String(), owner.Key())
	assert.Equal(t, "session:sess-1", guest.Key())
}
