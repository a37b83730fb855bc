package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/klokku/spendwise/internal/config"
	"github.com/klokku/spendwise/pkg/advisor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want advisor.ErrorClass
	}{
		{"not found", genai.APIError{Code: 404, Status: "NOT_FOUND"}, advisor.ClassNotFound},
		{"rate limited", genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED"}, advisor.ClassRateLimited},
		{"wrapped rate limited", fmt.Errorf("call failed: %w", genai.APIError{Code: 429}), advisor.ClassRateLimited},
		{"bad request", genai.APIError{Code: 400, Message: "API key not valid"}, advisor.ClassOther},
		{"server error", genai.APIError{Code: 500}, advisor.ClassOther},
		{"transport error mentioning 404", errors.New("dial tcp: 404 not found"), advisor.ClassOther},
		{"deadline", context.DeadlineExceeded, advisor.ClassOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify("gemini-2.0-flash", tt.err)

			assert.Equal(t, tt.want, got.Class)
			assert.Equal(t, "gemini-2.0-flash", got.Model)
			assert.Equal(t, tt.err, got.Err)
		})
	}
}

func TestClassify_KeepsApiError(t *testing.T) {
	// given
	apiErr := genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED", Details: []map[string]any{{"reason": "quota"}}}

	// when
	got := Classify("gemini-2.0-flash", fmt.Errorf("call failed: %w", apiErr))

	// then
	var unwrapped genai.APIError
	require.ErrorAs(t, got, &unwrapped)
	assert.Equal(t, 429, unwrapped.Code)
	assert.Equal(t, advisor.ClassRateLimited, got.Class)
}

func TestNewFactory(t *testing.T) {
	t.Run("should accept empty base url", func(t *testing.T) {
		_, err := NewFactory(config.Advisor{ApiVersion: "v1beta"})

		assert.NoError(t, err)
	})

	t.Run("should reject base url without http scheme", func(t *testing.T) {
		_, err := NewFactory(config.Advisor{BaseUrl: "ftp://example.com"})

		assert.Error(t, err)
	})
}

// fakeGemini answers generateContent calls: models containing "missing" are unknown,
// models containing "broken" fail with 400, everything else echoes the system instruction.
func fakeGemini(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.Contains(r.URL.Path, "missing"):
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"error":{"code":404,"message":"model not found","status":"NOT_FOUND"}}`)
		case strings.Contains(r.URL.Path, "broken"):
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`)
		default:
			var body struct {
				SystemInstruction struct {
					Parts []struct {
						Text string `json:"text"`
					} `json:"parts"`
				} `json:"systemInstruction"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			instruction := ""
			if len(body.SystemInstruction.Parts) > 0 {
				instruction = body.SystemInstruction.Parts[0].Text
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"candidates": []any{
					map[string]any{
						"content": map[string]any{
							"role":  "model",
							"parts": []any{map[string]any{"text": "tips (" + instruction + ")"}},
						},
					},
				},
			})
		}
	}))
}

func TestInvoker_Invoke(t *testing.T) {
	server := fakeGemini(t)
	defer server.Close()

	factory, err := NewFactory(config.Advisor{BaseUrl: server.URL, ApiVersion: "v1beta"})
	require.NoError(t, err)
	invoker, err := factory.ForKey(context.Background(), "test-key")
	require.NoError(t, err)

	t.Run("should return generated text", func(t *testing.T) {
		text, err := invoker.Invoke(context.Background(), "gemini-2.0-flash", "Analyze", "Use ₹")

		require.NoError(t, err)
		assert.Equal(t, "tips (Use ₹)", text)
	})

	t.Run("should classify unknown model as not found", func(t *testing.T) {
		_, err := invoker.Invoke(context.Background(), "missing-model", "Analyze", "")

		var invocationErr *advisor.InvocationError
		require.ErrorAs(t, err, &invocationErr)
		assert.Equal(t, advisor.ClassNotFound, invocationErr.Class)
	})

	t.Run("should classify bad request as other", func(t *testing.T) {
		_, err := invoker.Invoke(context.Background(), "broken-model", "Analyze", "")

		var invocationErr *advisor.InvocationError
		require.ErrorAs(t, err, &invocationErr)
		assert.Equal(t, advisor.ClassOther, invocationErr.Class)
	})

	t.Run("should drive the fallback strategy", func(t *testing.T) {
		strategy, err := advisor.NewStrategy([]string{"missing-model", "gemini-2.0-flash"}, 0)
		require.NoError(t, err)

		outcome := strategy.Run(context.Background(), invoker, advisor.Prompt{Text: "Analyze"})

		assert.Equal(t, advisor.OutcomeSuccess, outcome.Kind)
		assert.Equal(t, "gemini-2.0-flash", outcome.Model)
	})
}
