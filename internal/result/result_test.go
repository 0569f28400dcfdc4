package result

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"staybook/pkg/client"
	"testing"
)

type hotel struct{ ID string }

func TestOf(t *testing.T) {
	tests := []struct {
		name      string
		data      []hotel
		err       error
		wantKind  Kind
		wantError ErrorKind
	}{
		{
			name:     "data present",
			data:     []hotel{{ID: "h1"}},
			wantKind: KindOk,
		},
		{
			name:     "empty list",
			data:     []hotel{},
			wantKind: KindEmpty,
		},
		{
			name:     "nil list",
			wantKind: KindEmpty,
		},
		{
			name:     "404 status",
			err:      &client.APIError{Status: http.StatusNotFound},
			wantKind: KindEmpty,
		},
		{
			name:     "NotFoundError name on another status",
			err:      &client.APIError{Status: http.StatusBadRequest, Name: "NotFoundError"},
			wantKind: KindEmpty,
		},
		{
			name:     "no bookings message",
			err:      &client.APIError{Status: http.StatusInternalServerError, Message: "Error: No bookings found for this user"},
			wantKind: KindEmpty,
		},
		{
			name:     "no favorites message wrapped",
			err:      fmt.Errorf("list: %w", &client.APIError{Status: http.StatusInternalServerError, Message: "No favorites found for this user"}),
			wantKind: KindEmpty,
		},
		{
			name:      "unauthorized",
			err:       &client.APIError{Status: http.StatusUnauthorized, Message: "Unauthorized"},
			wantKind:  KindError,
			wantError: ErrUnauthorized,
		},
		{
			name:      "server error",
			err:       &client.APIError{Status: http.StatusInternalServerError, Message: "database offline"},
			wantKind:  KindError,
			wantError: ErrBackend,
		},
		{
			name:      "breaker open",
			err:       client.ErrBackendUnavailable,
			wantKind:  KindError,
			wantError: ErrNetwork,
		},
		{
			name:      "deadline",
			err:       fmt.Errorf("request failed: %w", context.DeadlineExceeded),
			wantKind:  KindError,
			wantError: ErrNetwork,
		},
		{
			name:      "opaque error",
			err:       errors.New("something odd"),
			wantKind:  KindError,
			wantError: ErrUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Of(tt.data, tt.err)
			if r.Kind != tt.wantKind {
				t.Fatalf("Kind = %s, want %s", r.Kind, tt.wantKind)
			}
			if r.ErrorKind != tt.wantError {
				t.Errorf("ErrorKind = %s, want %s", r.ErrorKind, tt.wantError)
			}
			if r.IsError() && r.Message == "" {
				t.Error("error results must carry a message")
			}
		})
	}
}

func TestOf_NilPointerIsEmpty(t *testing.T) {
	var h *hotel
	if r := Of(h, nil); !r.IsEmpty() {
		t.Errorf("expected nil pointer to be Empty, got %s", r.Kind)
	}
	if r := Of(&hotel{ID: "h1"}, nil); !r.IsOk() || r.Data.ID != "h1" {
		t.Errorf("expected Ok with data, got %+v", r)
	}
}
