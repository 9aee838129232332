package policy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/record-tracker-api/internal/apperr"
	"github.com/record-tracker-api/internal/models"
	"github.com/record-tracker-api/internal/policy"
)

var (
	owner    = models.Caller{ID: "user-1"}
	stranger = models.Caller{ID: "user-2"}
	admin    = models.Caller{ID: "admin-1", IsAdmin: true}
)

func TestRecordAccess(t *testing.T) {
	record := &models.Record{ID: "rec-1", UserID: "user-1"}

	tests := []struct {
		name   string
		caller models.Caller
		want   bool
	}{
		{"owner", owner, true},
		{"other user", stranger, false},
		{"admin not owner", admin, true},
		{"empty identity", models.Caller{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.CanReadRecord(tt.caller, record))
			assert.Equal(t, tt.want, policy.CanMutateRecord(tt.caller, record))

			readErr := policy.AuthorizeRecordRead(tt.caller, record)
			mutateErr := policy.AuthorizeRecordMutation(tt.caller, record)
			if tt.want {
				assert.NoError(t, readErr)
				assert.NoError(t, mutateErr)
			} else {
				assert.True(t, apperr.Is(readErr, apperr.KindUnauthorized))
				assert.True(t, apperr.Is(mutateErr, apperr.KindUnauthorized))
			}
		})
	}
}

func TestCanSetStatus(t *testing.T) {
	assert.False(t, policy.CanSetStatus(owner))
	assert.True(t, policy.CanSetStatus(admin))
}

func TestCanMutateUserAdminFlag(t *testing.T) {
	assert.False(t, policy.CanMutateUserAdminFlag(owner))
	assert.True(t, policy.CanMutateUserAdminFlag(admin))
}

func TestUserDeletion(t *testing.T) {
	target := &models.User{ID: "user-1"}
	self := &models.User{ID: "admin-1", IsAdmin: true}

	tests := []struct {
		name     string
		caller   models.Caller
		target   *models.User
		allowed  bool
		wantKind apperr.Kind
	}{
		{"admin deletes other user", admin, target, true, 0},
		{"admin deletes self", admin, self, false, apperr.KindSelfActionForbidden},
		{"user deletes other user", stranger, target, false, apperr.KindUnauthorized},
		{"user deletes self", owner, target, false, apperr.KindUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, policy.CanDeleteUser(tt.caller, tt.target))

			err := policy.AuthorizeUserDeletion(tt.caller, tt.target)
			if tt.allowed {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.wantKind, apperr.KindOf(err))
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	assert.NoError(t, policy.RequireAdmin(admin))

	err := policy.RequireAdmin(owner)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
	assert.Equal(t, "Not authorized as an admin", apperr.Message(err))
}
