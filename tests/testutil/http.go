package testutil

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

// Envelope is the decoded response envelope
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta *struct {
		Total      int64 `json:"total"`
		Page       int   `json:"page"`
		PageSize   int   `json:"page_size"`
		TotalPages int   `json:"total_pages"`
	} `json:"meta"`
}

// DecodeEnvelope decodes a recorded response envelope
func DecodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "decode envelope: %s", w.Body.String())
	return env
}

// DecodeData decodes the data member of a recorded envelope into T
func DecodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	env := DecodeEnvelope(t, w)
	require.NoError(t, json.Unmarshal(env.Data, &out), "decode data: %s", string(env.Data))
	return out
}

// ErrorCode returns the error code of a failed envelope, or "" when there is none
func ErrorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	env := DecodeEnvelope(t, w)
	if env.Error == nil {
		return ""
	}
	return env.Error.Code
}

// JSONBody decodes a recorded body that is not wrapped in an envelope
func JSONBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "decode body: %s", w.Body.String())
	return out
}
