package database

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"

	apperrors "github.com/kbukum/careerauth/errors"
)

// Driver messages, lower-cased, that mark a transient failure.
var (
	connectionMarkers = []string{
		"connection refused", "connection reset", "broken pipe", "i/o timeout",
		"no route to host", "network is unreachable", "connection closed",
		"connection lost", "driver: bad connection", "invalid connection",
	}
	contentionMarkers = []string{
		"deadlock", "lock timeout", "database is locked",
		"too many connections", "connection pool exhausted",
	}
	duplicateMarkers = []string{"unique constraint failed", "duplicate key value"}
)

func containsAny(err error, markers []string) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, m := range markers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// IsConnectionError reports a lost or refused connection.
func IsConnectionError(err error) bool { return containsAny(err, connectionMarkers) }

// IsRetryableError reports an error worth retrying: lost connections and
// lock contention.
func IsRetryableError(err error) bool {
	return IsConnectionError(err) || containsAny(err, contentionMarkers)
}

// IsNotFoundError reports a lookup that matched no row.
func IsNotFoundError(err error) bool { return errors.Is(err, gorm.ErrRecordNotFound) }

// IsDuplicateError reports a unique-key violation, such as registering an
// email twice. The string markers catch driver errors GORM did not translate.
func IsDuplicateError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || containsAny(err, duplicateMarkers)
}

// FromDatabase maps a GORM error on resource to the AppError returned to
// clients: 404, 409, retryable 503, or a 500 database error.
func FromDatabase(err error, resource string) *apperrors.AppError {
	switch {
	case err == nil:
		return nil
	case IsNotFoundError(err):
		return apperrors.NotFound(resource, "")
	case IsDuplicateError(err):
		return (&apperrors.AppError{
			Code:       apperrors.ErrCodeAlreadyExists,
			Message:    fmt.Sprintf("A %s with these details already exists.", resource),
			HTTPStatus: http.StatusConflict,
		}).WithCause(err)
	case IsRetryableError(err):
		return (&apperrors.AppError{
			Code:       apperrors.ErrCodeDatabaseError,
			Message:    "Database is temporarily unavailable. Please try again.",
			HTTPStatus: http.StatusServiceUnavailable,
			Retryable:  true,
		}).WithCause(err)
	default:
		return apperrors.DatabaseError(err)
	}
}
