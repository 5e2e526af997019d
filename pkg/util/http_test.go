package util

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteJSON(w, http.StatusCreated, map[string]string{"id": "pr-1"})

		require.Equal(t, http.StatusCreated, w.Code)
		require.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
		require.JSONEq(t, `{"id":"pr-1"}`, w.Body.String())
	})

	t.Run("unmarshalable", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteJSON(w, http.StatusOK, make(chan int))

		require.Equal(t, http.StatusInternalServerError, w.Code)
		require.Contains(t, w.Body.String(), "unable to marshal response")
	})
}

func TestWriteErrorf(t *testing.T) {
	w := httptest.NewRecorder()
	WriteErrorf(w, http.StatusNotFound, "proof request %s not found", "pr-1")

	require.Equal(t, http.StatusNotFound, w.Code)
	require.JSONEq(t, `{"message":"proof request pr-1 not found"}`, w.Body.String())
	require.Equal(t, "proof request pr-1 not found", ErrorMessage(w.Body.Bytes()))
}

func TestErrorMessage(t *testing.T) {
	require.Equal(t, "boom", ErrorMessage([]byte(`{"message":"boom"}`)))
	require.Equal(t, "plain text", ErrorMessage([]byte("plain text")))
	require.Equal(t, `{"error":"x"}`, ErrorMessage([]byte(`{"error":"x"}`)))
}

func TestNewHTTPClient(t *testing.T) {
	t.Run("retries server errors", func(t *testing.T) {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		client := NewHTTPClient(2, time.Second)
		client.RetryWaitMin = time.Millisecond
		client.RetryWaitMax = time.Millisecond

		resp, err := client.Get(srv.URL)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		require.Equal(t, int32(3), atomic.LoadInt32(&calls))
	})

	t.Run("no retries", func(t *testing.T) {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		resp, err := NewHTTPClient(0, time.Second).Get(srv.URL)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})
}
