package util

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

type errorBody struct {
	Message string `json:"message"`
}

func WriteSuccess(w http.ResponseWriter, data []byte) {
	WriteStatus(w, http.StatusOK, data)
}

func WriteStatus(w http.ResponseWriter, code int, data []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(data)
}

// WriteJSON marshals v and writes it with the given status code.
func WriteJSON(w http.ResponseWriter, code int, v interface{}) {
	d, err := json.Marshal(v)
	if err != nil {
		WriteErrorf(w, http.StatusInternalServerError, "unable to marshal response: %v", err)
		return
	}

	WriteStatus(w, code, d)
}

func WriteError(w http.ResponseWriter, code int, msg string) {
	d, _ := json.Marshal(errorBody{Message: msg})
	WriteStatus(w, code, d)
}

func WriteErrorf(w http.ResponseWriter, code int, msg string, args ...interface{}) {
	WriteError(w, code, fmt.Sprintf(msg, args...))
}

// ErrorMessage extracts the message field of a JSON error body, or the raw body when it is not JSON.
func ErrorMessage(body []byte) string {
	eb := errorBody{}
	if err := json.Unmarshal(body, &eb); err == nil && eb.Message != "" {
		return eb.Message
	}

	return string(body)
}

// NewHTTPClient builds a retrying client. retries of 0 disables retry entirely.
func NewHTTPClient(retries int, timeout time.Duration) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = retries
	client.HTTPClient.Timeout = timeout
	client.Logger = LeveledLogger{Entry: Logger("http-client")}
	// non-2xx responses are returned to the caller instead of being turned into errors
	client.CheckRetry = statusRetryPolicy
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return client
}

// statusRetryPolicy retries like the default policy but never reports a status code as an error.
func statusRetryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	retry, checkErr := retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	if err == nil && resp != nil && ctx.Err() == nil {
		return retry, nil
	}

	return retry, checkErr
}
