package emails

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrevoClient_SendWelcome(t *testing.T) {
	var got BrevoSendRequest
	var apiKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey = r.Header.Get("api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := &BrevoClient{APIKey: "k", Endpoint: srv.URL}
	require.NoError(t, c.SendWelcome(context.Background(), "agent@liyantis.com", "Sara"))

	assert.Equal(t, "k", apiKey)
	assert.Equal(t, "Welcome to Liyantis", got.Subject)
	assert.Equal(t, "noreply@liyantis.com", got.Sender.Email)
	require.Len(t, got.To, 1)
	assert.Equal(t, "agent@liyantis.com", got.To[0].Email)
	assert.Contains(t, got.HTMLContent, "<h1>Welcome, Sara!</h1>")
	assert.Contains(t, got.HTMLContent, "<strong>Liyantis</strong>")
}

func TestBrevoClient_SendReportLink_EscapesName(t *testing.T) {
	var got BrevoSendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := &BrevoClient{APIKey: "k", Endpoint: srv.URL}
	err := c.SendReportLink(context.Background(), "x@y.com", "<script>The Weave</script>", "https://files.example.com/r.pdf?token=a")
	require.NoError(t, err)
	assert.NotContains(t, got.HTMLContent, "<script>")
	assert.Contains(t, got.HTMLContent, `href="https://files.example.com/r.pdf?token=a"`)
}

func TestBrevoClient_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := &BrevoClient{APIKey: "k", Endpoint: srv.URL}
	assert.Error(t, c.SendWelcome(context.Background(), "a@b.com", ""))
}

func TestBrevoClient_NoKeyIsNoop(t *testing.T) {
	c := &BrevoClient{Endpoint: "http://127.0.0.1:1"}
	assert.NoError(t, c.SendWelcome(context.Background(), "a@b.com", "A"))
}
