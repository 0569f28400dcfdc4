package result

import (
	"net/http"

	"staybook/pkg/client"
	apperrors "staybook/pkg/errors"
)

// ToAppError maps a failed operation onto the BFF error shape. The backend's
// own message wins over fallback when it sent one.
func ToAppError(err error, fallback string) *apperrors.AppError {
	if err == nil {
		return nil
	}
	if apperrors.IsAppError(err) {
		return apperrors.AsAppError(err)
	}

	if apiErr, ok := client.AsAPIError(err); ok {
		msg := apiErr.Message
		if msg == "" {
			msg = fallback
		}
		return apperrors.Upstream(apiErr.Status, msg).WithCause(err)
	}

	if Classify(err) == ErrNetwork {
		return apperrors.New(apperrors.CodeUnavailable, fallback, http.StatusServiceUnavailable).WithCause(err)
	}
	return apperrors.Internal(fallback, err)
}

// Message is the user-facing text for a failed operation.
func Message(err error, fallback string) string {
	if apiErr, ok := client.AsAPIError(err); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
