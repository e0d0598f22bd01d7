package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	t.Run("successful write", func(t *testing.T) {
		w := httptest.NewRecorder()

		err := WriteJSON(w, http.StatusOK, map[string]string{"message": "test"})
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var response map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, "test", response["message"])
	})

	t.Run("nil data", func(t *testing.T) {
		w := httptest.NewRecorder()

		require.NoError(t, WriteJSON(w, http.StatusNoContent, nil))

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})
}

func TestSuccessWriters(t *testing.T) {
	tests := []struct {
		name       string
		write      func(http.ResponseWriter, interface{}) error
		data       map[string]string
		wantStatus int
	}{
		{"user listed", WriteOK, map[string]string{"login": "admin"}, http.StatusOK},
		{"consumer registered", WriteCreated, map[string]string{"consumer_id": "billing"}, http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			require.NoError(t, tt.write(w, tt.data))
			assert.Equal(t, tt.wantStatus, w.Code)

			var response struct {
				Data map[string]string `json:"data"`
			}
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.Equal(t, tt.data, response.Data)
		})
	}
}

func TestWriteNoContent(t *testing.T) {
	w := httptest.NewRecorder()

	WriteNoContent(w)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestWriteAuthorizationFailure(t *testing.T) {
	w := httptest.NewRecorder()

	require.NoError(t, WriteAuthorizationFailure(w))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t,
		`"Authorization Failure. Check your username and password or your Certificate"`,
		strings.TrimSpace(w.Body.String()))
}

func TestWriteIdentityNotFound(t *testing.T) {
	w := httptest.NewRecorder()

	err := WriteIdentityNotFound(w, "User with login [bob] does not exist", map[string]interface{}{"login": "bob"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var response ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "identity_not_found", response.Error)
	assert.Equal(t, "User with login [bob] does not exist", response.Message)
	assert.Equal(t, "bob", response.Details["login"])
}

func TestErrorWriters(t *testing.T) {
	tests := []struct {
		name        string
		write       func(http.ResponseWriter) error
		wantStatus  int
		wantError   string
		wantMessage string
	}{
		{
			name:        "bad request",
			write:       func(w http.ResponseWriter) error { return WriteBadRequest(w, "Validation failed", nil) },
			wantStatus:  http.StatusBadRequest,
			wantError:   "bad_request",
			wantMessage: "Validation failed",
		},
		{
			name:        "not found default message",
			write:       func(w http.ResponseWriter) error { return WriteNotFound(w, "") },
			wantStatus:  http.StatusNotFound,
			wantError:   "not_found",
			wantMessage: "Resource not found",
		},
		{
			name:        "conflict",
			write:       func(w http.ResponseWriter) error { return WriteConflict(w, "login already exists", nil) },
			wantStatus:  http.StatusConflict,
			wantError:   "conflict",
			wantMessage: "login already exists",
		},
		{
			name:        "internal default message",
			write:       func(w http.ResponseWriter) error { return WriteInternalServerError(w, "") },
			wantStatus:  http.StatusInternalServerError,
			wantError:   "internal_error",
			wantMessage: "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			require.NoError(t, tt.write(w))

			assert.Equal(t, tt.wantStatus, w.Code)
			var response ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.Equal(t, tt.wantError, response.Error)
			assert.Equal(t, tt.wantMessage, response.Message)
		})
	}
}

func TestWriteServiceUnavailable(t *testing.T) {
	w := httptest.NewRecorder()

	require.NoError(t, WriteServiceUnavailable(w, map[string]string{"status": "not_ready"}))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var response map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "not_ready", response["status"])
}
