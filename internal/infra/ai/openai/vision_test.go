package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/glowreader/internal/domain/analysis"
)

func TestGenerate_SendsImageAndJSONFormat(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"analysisText\":\"# Hi\"}"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("test-key", srv.URL+"/v1", "")
	out, err := c.Generate(context.Background(), "describe", &analysis.Photo{Data: []byte{0xff, 0xd8}, MimeType: "image/jpeg"})
	require.NoError(t, err)
	assert.Equal(t, `{"analysisText":"# Hi"}`, out)

	assert.Equal(t, defaultModel, got["model"])
	assert.Equal(t, "json_object", got["response_format"].(map[string]any)["type"])
	msgs := got["messages"].([]any)
	require.Len(t, msgs, 1)
	parts := msgs[0].(map[string]any)["content"].([]any)
	require.Len(t, parts, 2)
	img := parts[1].(map[string]any)["image_url"].(map[string]any)
	assert.True(t, strings.HasPrefix(img["url"].(string), "data:image/jpeg;base64,"))
}

func TestGenerate_QuotaExceeded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached","type":"requests","code":"rate_limit_exceeded"}}`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("test-key", srv.URL+"/v1", "gpt-4o-mini")
	_, err := c.Generate(context.Background(), "describe", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, analysis.ErrQuotaExceeded))
}

func TestGenerate_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[]}`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("test-key", srv.URL+"/v1", "")
	_, err := c.Generate(context.Background(), "describe", nil)
	require.Error(t, err)
	assert.False(t, errors.Is(err, analysis.ErrQuotaExceeded))
}
