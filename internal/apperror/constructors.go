package apperror

// UserNotFound reports a missing principal identified by key (id or email).
func UserNotFound(field string, value any) *Error {
	return New(KindUserNotFound, "user not found").With(field, value)
}

// UserAlreadyExists reports an email collision on registration.
func UserAlreadyExists(email string) *Error {
	return New(KindUserAlreadyExists, "user with this email already exists").With("email", email)
}

// UserAlreadyDeleted reports a repeated soft delete.
func UserAlreadyDeleted(id any) *Error {
	return New(KindUserAlreadyDeleted, "user is already deleted").With("id", id)
}

// UserAlreadyApproved reports a repeated approval.
func UserAlreadyApproved(id any) *Error {
	return New(KindUserAlreadyApproved, "user is already approved").With("id", id)
}

// InvalidUserState reports an illegal state transition.
func InvalidUserState(id any, reason string) *Error {
	return New(KindInvalidUserState, "operation not allowed in the current user state").
		With("id", id).
		With("reason", reason)
}

// PermissionNotFound reports an unknown permission name or authority.
func PermissionNotFound(name string) *Error {
	return New(KindPermissionNotFound, "permission not found").With("permission", name)
}

// MissingPermissions reports a request that did not name any permission.
func MissingPermissions() *Error {
	return New(KindMissingPermissions, "at least one permission is required")
}

// Unauthenticated reports an absent or unusable identity.
func Unauthenticated(message string) *Error {
	if message == "" {
		message = "authentication required"
	}

	return New(KindUnauthenticated, message)
}

// InsufficientPermissions reports a denied authorization check.
func InsufficientPermissions(required, missing []string) *Error {
	return New(KindInsufficientPermissions, "insufficient permissions").
		With("requiredPermissions", required).
		With("missingPermissions", missing)
}

// InvalidToken reports a bearer token that was present but rejected.
func InvalidToken(cause error) *Error {
	return Wrap(KindInvalidToken, cause, "invalid token")
}

// JwtAuthentication reports a well-formed token that lacks an expected claim.
func JwtAuthentication(claim, message string) *Error {
	return New(KindJwtAuthentication, message).With("claim", claim)
}

// InvalidOtp reports a reset code that is unknown, superseded, used or expired.
func InvalidOtp(email string) *Error {
	return New(KindInvalidOtp, "invalid or expired one-time password").With("email", email)
}

// Validation reports a request body that failed validation.
func Validation(fields map[string]string) *Error {
	return New(KindValidation, "request validation failed").With("fields", fields)
}
