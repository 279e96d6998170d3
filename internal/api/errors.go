package api

import (
	"errors"
	"net/http"

	"orders-lake/internal/domain"
)

// httpStatusFromDomainError maps domain errors to HTTP status codes.
// A storage failure caused by a missing object reports 404.
func httpStatusFromDomainError(err error) int {
	var notFound *domain.NotFoundError
	var validation *domain.ValidationError
	var malformed *domain.MalformedRecordError
	var conflict *domain.ConflictError
	var storage *domain.StorageError

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &validation), errors.As(err, &malformed):
		return http.StatusBadRequest
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &storage):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
