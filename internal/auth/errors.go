package auth

import "errors"

// Repository level sentinels.
var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("auth: not found")
	// ErrDuplicate indicates a unique constraint violation.
	ErrDuplicate = errors.New("auth: duplicate")
)

// Error codes carried by *Error.
const (
	CodeInvalidCredentials   = "invalid_credentials"
	CodeAccountNotConfigured = "account_not_configured"
	CodeVerifyFailed         = "verify_failed"
	CodeRoleNotFound         = "role_not_found"
	CodeSessionCreateFailed  = "session_create_failed"
	CodeLoginFailed          = "login_failed"
	CodeMissingFields        = "missing_fields"
	CodeInvalidRole          = "invalid_role"
	CodeEmailTaken           = "email_taken"
	CodeHashFailed           = "hash_failed"
	CodeProfileInsertFailed  = "profile_insert_failed"
	CodeRoleAssignFailed     = "role_assign_failed"
	CodeCreateFailed         = "create_failed"
	CodeProfileNotFound      = "profile_not_found"
	CodePasswordUpdateFailed = "password_update_failed"
)

// Error is the result-shaped failure returned by every Service operation.
// Message is safe to show to users; the wrapped cause is for logs only.
type Error struct {
	Code    string
	Message string
	cause   error
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap exposes the underlying fault.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches errors by code so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok || other.cause != nil {
		return false
	}
	return other.Code == e.Code
}

func (e *Error) withCause(cause error) *Error {
	return &Error{Code: e.Code, Message: e.Message, cause: cause}
}

// Sentinel results.
var (
	ErrInvalidCredentials   = &Error{Code: CodeInvalidCredentials, Message: "Invalid email or password"}
	ErrAccountNotConfigured = &Error{Code: CodeAccountNotConfigured, Message: "Account not configured, contact an administrator"}
	ErrVerifyFailed         = &Error{Code: CodeVerifyFailed, Message: "Login failed, please try again"}
	ErrRoleNotFound         = &Error{Code: CodeRoleNotFound, Message: "User role not found"}
	ErrSessionCreateFailed  = &Error{Code: CodeSessionCreateFailed, Message: "Failed to create session"}
	ErrLoginFailed          = &Error{Code: CodeLoginFailed, Message: "Login failed"}
	ErrMissingFields        = &Error{Code: CodeMissingFields, Message: "Email, password, first name and last name are required"}
	ErrInvalidRole          = &Error{Code: CodeInvalidRole, Message: "Role must be hr or employee"}
	ErrEmailTaken           = &Error{Code: CodeEmailTaken, Message: "Email already registered"}
	ErrHashFailed           = &Error{Code: CodeHashFailed, Message: "Failed to secure password"}
	ErrRoleAssignFailed     = &Error{Code: CodeRoleAssignFailed, Message: "Failed to assign role"}
	ErrCreateFailed         = &Error{Code: CodeCreateFailed, Message: "Failed to create user"}
	ErrProfileNotFound      = &Error{Code: CodeProfileNotFound, Message: "Profile not found"}
	ErrPasswordUpdateFailed = &Error{Code: CodePasswordUpdateFailed, Message: "Failed to update password"}
)

// ErrProfileInsertFailed matches any profile insert failure regardless of message.
var ErrProfileInsertFailed = &Error{Code: CodeProfileInsertFailed, Message: "Failed to create profile"}
