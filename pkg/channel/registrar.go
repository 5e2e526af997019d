package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"

	"github.com/scoir/proofbridge/pkg/schema"
	"github.com/scoir/proofbridge/pkg/util"
)

const registerPath = "/socket/register"

// RegistrationError is returned when the service refuses or garbles a session registration.
type RegistrationError struct {
	StatusCode int
	Message    string
}

func (r *RegistrationError) Error() string {
	if r.StatusCode == 0 {
		return fmt.Sprintf("session registration failed: %s", r.Message)
	}
	return fmt.Sprintf("session registration failed (%d): %s", r.StatusCode, r.Message)
}

// Registrar performs the one-shot session handshake. It never retries; reconnecting is up to the Channel.
type Registrar struct {
	baseURL string
	client  *retryablehttp.Client
}

func NewRegistrar(baseURL string, timeout time.Duration) *Registrar {
	return &Registrar{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  util.NewHTTPClient(0, timeout),
	}
}

func (r *Registrar) Register(ctx context.Context, appName string) (*schema.SocketSession, error) {
	d, err := json.Marshal(&schema.SocketRegistration{AppName: appName})
	if err != nil {
		return nil, errors.Wrap(err, "unable to marshal registration")
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+registerPath, bytes.NewBuffer(d))
	if err != nil {
		return nil, errors.Wrap(err, "unable to build registration request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &RegistrationError{Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RegistrationError{StatusCode: resp.StatusCode, Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := util.ErrorMessage(body)
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &RegistrationError{StatusCode: resp.StatusCode, Message: msg}
	}

	sess := &schema.SocketSession{}
	if err := json.Unmarshal(body, sess); err != nil {
		return nil, &RegistrationError{StatusCode: resp.StatusCode, Message: "malformed registration response"}
	}

	if sess.SocketSessionID == "" || sess.WebsocketURL == "" {
		return nil, &RegistrationError{StatusCode: resp.StatusCode, Message: "registration response missing session id or channel url"}
	}

	return sess, nil
}
