package fuelup_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsanders-rh/boat-fuel-tracker/fuelup"
)

// =============================================================================
// ACCESS GUARD TESTS
// =============================================================================

func TestAuthorize_OwnerAllowed(t *testing.T) {
	actor := fuelup.Identity{UserID: "alice", Roles: []string{"user"}}

	assert.NoError(t, fuelup.Authorize(actor, "alice"))
}

func TestAuthorize_OtherUserForbidden(t *testing.T) {
	// GIVEN: Alice, no admin role
	// WHEN: Touching Bob's data
	// THEN: Forbidden, with both parties identified

	actor := fuelup.Identity{UserID: "alice", Roles: []string{"user"}}

	err := fuelup.Authorize(actor, "bob")

	assert.ErrorIs(t, err, fuelup.ErrForbidden)
	var fe *fuelup.ForbiddenError
	assert.ErrorAs(t, err, &fe)
	assert.Equal(t, "alice", fe.ActorID)
	assert.Equal(t, "bob", fe.TargetID)
}

func TestAuthorize_AdminBypassesOwnership(t *testing.T) {
	actor := fuelup.Identity{UserID: "root", Roles: []string{"user", fuelup.RoleAdmin}}

	assert.NoError(t, fuelup.Authorize(actor, "bob"))
}

func TestAuthorize_EmptyActorForbidden(t *testing.T) {
	// An unauthenticated (zero) identity never matches a real owner.
	assert.ErrorIs(t, fuelup.Authorize(fuelup.Identity{}, "bob"), fuelup.ErrForbidden)
}
