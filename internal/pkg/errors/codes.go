package errors

import "net/http"

var (
	ErrResourceNotFound = New(
		"NOT_FOUND",
		"Resource not found",
		http.StatusNotFound,
	)

	ErrAccessDenied = New(
		"FORBIDDEN",
		"Actor is not allowed to perform this operation",
		http.StatusForbidden,
	)

	ErrTransitionNotAllowed = New(
		"INVALID_TRANSITION",
		"Status transition is not allowed",
		http.StatusUnprocessableEntity,
	)

	ErrConcurrentUpdate = New(
		"CONFLICT",
		"Record was modified concurrently, retry the operation",
		http.StatusConflict,
	)

	ErrInvalidInput = New(
		"VALIDATION_ERROR",
		"Invalid input",
		http.StatusBadRequest,
	)

	ErrInvalidToken = New(
		"UNAUTHORIZED",
		"Missing or invalid access token",
		http.StatusUnauthorized,
	)

	ErrTooManyRequests = New(
		"TOO_MANY_REQUESTS",
		"Rate limit exceeded",
		http.StatusTooManyRequests,
	)

	ErrDatabaseError = New(
		"DATABASE_ERROR",
		"Database operation failed",
		http.StatusInternalServerError,
	)

	ErrCacheError = New(
		"CACHE_ERROR",
		"Cache operation failed",
		http.StatusInternalServerError,
	)

	ErrStorageError = New(
		"STORAGE_ERROR",
		"Media storage operation failed",
		http.StatusInternalServerError,
	)

	ErrInternalServer = New(
		"INTERNAL_SERVER_ERROR",
		"Internal server error",
		http.StatusInternalServerError,
	)
)
