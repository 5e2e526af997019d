package verifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"

	"github.com/scoir/proofbridge/pkg/proofrequest"
	"github.com/scoir/proofbridge/pkg/schema"
	"github.com/scoir/proofbridge/pkg/util"
)

const (
	createPath = "/test-verifier/proof-request"
	statusPath = "/test-verifier/status/"

	DefaultRetries = 2
	DefaultTimeout = 10 * time.Second
)

// StatusError is a non-2xx answer from the verification service.
type StatusError struct {
	StatusCode int
	Message    string
}

func (r *StatusError) Error() string {
	return fmt.Sprintf("verification service error (%d): %s", r.StatusCode, r.Message)
}

type Option func(opts *Client)

// WithRetries sets how often a failed status poll is retried. Creation is never retried.
func WithRetries(retries int) Option {
	return func(opts *Client) {
		opts.retries = retries
	}
}

func WithTimeout(d time.Duration) Option {
	return func(opts *Client) {
		opts.timeout = d
	}
}

// Client talks to the verification service's test-verifier endpoints.
type Client struct {
	baseURL string
	retries int
	timeout time.Duration

	create *retryablehttp.Client
	status *retryablehttp.Client
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		retries: DefaultRetries,
		timeout: DefaultTimeout,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.create = util.NewHTTPClient(0, c.timeout)
	c.status = util.NewHTTPClient(c.retries, c.timeout)
	return c
}

func (r *Client) CreateProofRequest(ctx context.Context, templateID, sessionID string, req *schema.ProofRequest) (*proofrequest.ProofRequest, error) {
	d, err := json.Marshal(&schema.CreateProofRequest{
		TemplateID:      templateID,
		SocketSessionID: sessionID,
		ProofRequest:    req,
	})
	if err != nil {
		return nil, errors.Wrap(err, "unable to marshal proof request")
	}

	hreq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+createPath, bytes.NewBuffer(d))
	if err != nil {
		return nil, errors.Wrap(err, "unable to build create request")
	}
	hreq.Header.Set("Content-Type", "application/json")

	pr := &proofrequest.ProofRequest{}
	if err := r.do(r.create, hreq, pr); err != nil {
		return nil, errors.Wrap(err, "unable to create proof request")
	}

	return pr, nil
}

func (r *Client) Status(ctx context.Context, id string) (*proofrequest.ProofRequest, error) {
	hreq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+statusPath+url.PathEscape(id), nil)
	if err != nil {
		return nil, errors.Wrap(err, "unable to build status request")
	}

	pr := &proofrequest.ProofRequest{}
	if err := r.do(r.status, hreq, pr); err != nil {
		return nil, errors.Wrapf(err, "unable to get status of %s", id)
	}

	return pr, nil
}

func (r *Client) do(client *retryablehttp.Client, req *retryablehttp.Request, out interface{}) error {
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "unable to read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Message: util.ErrorMessage(body)}
	}

	return errors.Wrap(json.Unmarshal(body, out), "malformed response")
}
