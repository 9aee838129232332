// Package policy holds the access-control decisions for records and users.
// Every function is pure: it only looks at the caller and the target.
package policy

import (
	"github.com/record-tracker-api/internal/apperr"
	"github.com/record-tracker-api/internal/models"
)

const (
	msgNotAuthorized    = "Not authorized"
	msgAdminOnly        = "Not authorized as an admin"
	msgCannotDeleteSelf = "Cannot delete your own account"
)

// CanReadRecord reports whether caller may read record
func CanReadRecord(caller models.Caller, record *models.Record) bool {
	return caller.IsAdmin || caller.ID == record.UserID
}

// CanMutateRecord reports whether caller may update or delete record
func CanMutateRecord(caller models.Caller, record *models.Record) bool {
	return CanReadRecord(caller, record)
}

// CanSetStatus reports whether caller may change a record's status
func CanSetStatus(caller models.Caller) bool {
	return caller.IsAdmin
}

// CanDeleteUser reports whether caller may delete target. Nobody may
// delete their own account.
func CanDeleteUser(caller models.Caller, target *models.User) bool {
	return caller.IsAdmin && caller.ID != target.ID
}

// CanMutateUserAdminFlag reports whether caller may grant or revoke admin
func CanMutateUserAdminFlag(caller models.Caller) bool {
	return caller.IsAdmin
}

// AuthorizeRecordRead returns an unauthorized error if caller may not read record
func AuthorizeRecordRead(caller models.Caller, record *models.Record) error {
	if !CanReadRecord(caller, record) {
		return apperr.Unauthorized(msgNotAuthorized)
	}
	return nil
}

// AuthorizeRecordMutation returns an unauthorized error if caller may not mutate record
func AuthorizeRecordMutation(caller models.Caller, record *models.Record) error {
	if !CanMutateRecord(caller, record) {
		return apperr.Unauthorized(msgNotAuthorized)
	}
	return nil
}

// RequireAdmin returns an unauthorized error unless caller is an admin
func RequireAdmin(caller models.Caller) error {
	if !caller.IsAdmin {
		return apperr.Unauthorized(msgAdminOnly)
	}
	return nil
}

// AuthorizeUserDeletion distinguishes a non-admin caller (unauthorized) from
// an admin targeting their own account (self action forbidden).
func AuthorizeUserDeletion(caller models.Caller, target *models.User) error {
	if CanDeleteUser(caller, target) {
		return nil
	}
	if err := RequireAdmin(caller); err != nil {
		return err
	}
	return apperr.SelfActionForbidden(msgCannotDeleteSelf)
}
