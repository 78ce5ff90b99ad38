package notification

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNotify_PostsTextPayload(t *testing.T) {
	var received map[string]string
	var contentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewSlackNotifier(server.URL, 5*time.Second, zap.NewNop())
	n.Notify(context.Background(), "Processing report.csv")

	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, map[string]string{"text": "Processing report.csv"}, received)
}

func TestNotify_SwallowsRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	n := NewSlackNotifier(server.URL, 5*time.Second, zap.NewNop())
	assert.NotPanics(t, func() {
		n.Notify(context.Background(), "hello")
	})
}

func TestNotify_SwallowsConnectionFailure(t *testing.T) {
	n := NewSlackNotifier("http://127.0.0.1:1", 100*time.Millisecond, zap.NewNop())
	assert.NotPanics(t, func() {
		n.Notify(context.Background(), "hello")
	})
}
