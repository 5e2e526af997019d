package verifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/scoir/proofbridge/pkg/proofrequest"
	"github.com/scoir/proofbridge/pkg/schema"
)

func TestClient_CreateProofRequest(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		var got schema.CreateProofRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/test-verifier/proof-request", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":"pr-1","templateId":"tmpl-1","status":"generated","shortUrl":"https://v.example/s/1"}`))
		}))
		defer srv.Close()

		wire := &schema.ProofRequest{TemplateID: "tmpl-1", Name: "Age check"}
		pr, err := New(srv.URL).CreateProofRequest(context.Background(), "tmpl-1", "session-1", wire)
		require.NoError(t, err)
		require.Equal(t, "pr-1", pr.ID)
		require.Equal(t, proofrequest.Generated, pr.Status)
		require.Equal(t, "https://v.example/s/1", pr.ShortURL)

		require.Equal(t, "tmpl-1", got.TemplateID)
		require.Equal(t, "session-1", got.SocketSessionID)
		require.Equal(t, "Age check", got.ProofRequest.Name)
	})

	t.Run("creation is not retried", func(t *testing.T) {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"message":"upstream down"}`))
		}))
		defer srv.Close()

		_, err := New(srv.URL, WithRetries(3)).CreateProofRequest(context.Background(), "tmpl-1", "session-1", nil)

		var se *StatusError
		require.True(t, errors.As(err, &se))
		require.Equal(t, http.StatusBadGateway, se.StatusCode)
		require.Equal(t, "upstream down", se.Message)
		require.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})
}

func TestClient_Status(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/test-verifier/status/pr-1", r.URL.Path)
			_, _ = w.Write([]byte(`{"id":"pr-1","status":"verified","verificationResult":{"age":true}}`))
		}))
		defer srv.Close()

		pr, err := New(srv.URL, WithTimeout(time.Second)).Status(context.Background(), "pr-1")
		require.NoError(t, err)
		require.Equal(t, proofrequest.Verified, pr.Status)
		require.JSONEq(t, `{"age":true}`, string(pr.VerificationResult))
	})

	t.Run("retries server errors", func(t *testing.T) {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte(`{"id":"pr-1","status":"scanned"}`))
		}))
		defer srv.Close()

		c := New(srv.URL, WithRetries(1))
		c.status.RetryWaitMin = time.Millisecond
		c.status.RetryWaitMax = time.Millisecond

		pr, err := c.Status(context.Background(), "pr-1")
		require.NoError(t, err)
		require.Equal(t, proofrequest.Scanned, pr.Status)
		require.Equal(t, int32(2), atomic.LoadInt32(&calls))
	})

	t.Run("not found", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "no such request", http.StatusNotFound)
		}))
		defer srv.Close()

		_, err := New(srv.URL).Status(context.Background(), "missing")

		var se *StatusError
		require.True(t, errors.As(err, &se))
		require.Equal(t, http.StatusNotFound, se.StatusCode)
		require.Equal(t, "no such request\n", se.Message)
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"id":`))
		}))
		defer srv.Close()

		_, err := New(srv.URL).Status(context.Background(), "pr-1")
		require.Error(t, err)
		require.Contains(t, err.Error(), "malformed response")
	})
}
