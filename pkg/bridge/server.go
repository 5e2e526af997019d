/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"github.com/skip2/go-qrcode"
	goji "goji.io"
	"goji.io/pat"

	"github.com/scoir/proofbridge/pkg/channel"
	"github.com/scoir/proofbridge/pkg/datastore"
	"github.com/scoir/proofbridge/pkg/presentproof"
	"github.com/scoir/proofbridge/pkg/proofrequest"
	"github.com/scoir/proofbridge/pkg/template"
	"github.com/scoir/proofbridge/pkg/util"
	"github.com/scoir/proofbridge/pkg/verifier"
)

const (
	RequestIDHeader = "X-Request-ID"

	defaultQRSize   = 256
	maxQRSize       = 1024
	shutdownTimeout = 5 * time.Second
)

var logger = util.Logger("bridge")

type Catalogue interface {
	GetTemplate(id string) (*template.ProofTemplate, error)
}

type Requests interface {
	CreateRequest(ctx context.Context, t *template.ProofTemplate) (*proofrequest.ProofRequest, error)
	Status(id string) (*proofrequest.ProofRequest, error)
	History() []*proofrequest.ProofRequest
	Cancel(id string) error
}

// Archive holds requests that finished before this process started.
type Archive interface {
	GetProofRequest(id string) (*proofrequest.ProofRequest, error)
}

type ChannelStatus interface {
	State() channel.State
	SessionID() string
	Err() error
}

type provider interface {
	Catalogue() Catalogue
	Requests() Requests
	Translator() proofrequest.Translator
	Channel() ChannelStatus
	Archive() Archive
	Gatherer() prometheus.Gatherer
}

type Option func(opts *Server)

func WithAllowedOrigins(origins []string) Option {
	return func(opts *Server) {
		opts.origins = origins
	}
}

type Server struct {
	catalogue  Catalogue
	requests   Requests
	translator proofrequest.Translator
	channel    ChannelStatus
	archive    Archive
	gatherer   prometheus.Gatherer
	origins    []string
}

type createRequest struct {
	TemplateID string `json:"templateId"`
}

type channelResponse struct {
	State     string `json:"state"`
	SessionID string `json:"sessionId,omitempty"`
	Error     string `json:"error,omitempty"`
}

func New(prov provider, opts ...Option) *Server {
	r := &Server{
		catalogue:  prov.Catalogue(),
		requests:   prov.Requests(),
		translator: prov.Translator(),
		channel:    prov.Channel(),
		archive:    prov.Archive(),
		gatherer:   prov.Gatherer(),
		origins:    []string{"*"},
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Handler returns the routed API wrapped in CORS and request logging.
func (r *Server) Handler() http.Handler {
	mux := goji.NewMux()
	mux.Use(requestLogger)
	mux.Use(cors.New(cors.Options{
		AllowedOrigins: r.origins,
		AllowedMethods: []string{"GET", "POST", "DELETE"},
		AllowedHeaders: []string{"Origin", "Content-Type", "Accept", RequestIDHeader},
		ExposedHeaders: []string{"Content-Length", "Content-Type", RequestIDHeader},
	}).Handler)

	mux.HandleFunc(pat.Post("/proof-requests"), r.createProofRequest)
	mux.HandleFunc(pat.Get("/proof-requests"), r.listProofRequests)
	mux.HandleFunc(pat.Get("/proof-requests/:id"), r.getProofRequest)
	mux.HandleFunc(pat.Delete("/proof-requests/:id"), r.cancelProofRequest)
	mux.HandleFunc(pat.Get("/proof-requests/:id/qr"), r.proofRequestQR)
	mux.HandleFunc(pat.Post("/templates/translate"), r.translateTemplate)
	mux.HandleFunc(pat.Get("/channel"), r.channelState)

	if r.gatherer != nil {
		mux.Handle(pat.Get("/metrics"), promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{}))
	}

	return mux
}

// ListenAndServe serves the API on addr until ctx is done.
func (r *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("proof bridge API listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "proof bridge API stopped")
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := srv.Shutdown(sctx)
	<-errCh
	return errors.Wrap(err, "unable to shut down proof bridge API")
}

func (r *Server) createProofRequest(w http.ResponseWriter, req *http.Request) {
	body := &createRequest{}
	if err := json.NewDecoder(req.Body).Decode(body); err != nil {
		util.WriteErrorf(w, http.StatusBadRequest, "invalid request body: %v", err)
		return
	}
	if body.TemplateID == "" {
		util.WriteError(w, http.StatusBadRequest, "templateId is required")
		return
	}

	t, err := r.catalogue.GetTemplate(body.TemplateID)
	if err != nil {
		writeFailure(w, err)
		return
	}

	pr, err := r.requests.CreateRequest(req.Context(), t)
	if err != nil {
		writeFailure(w, err)
		return
	}

	util.WriteJSON(w, http.StatusCreated, pr)
}

func (r *Server) listProofRequests(w http.ResponseWriter, _ *http.Request) {
	util.WriteJSON(w, http.StatusOK, r.requests.History())
}

func (r *Server) getProofRequest(w http.ResponseWriter, req *http.Request) {
	pr, err := r.lookup(pat.Param(req, "id"))
	if err != nil {
		writeFailure(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, pr)
}

func (r *Server) cancelProofRequest(w http.ResponseWriter, req *http.Request) {
	err := r.requests.Cancel(pat.Param(req, "id"))
	if err != nil {
		writeFailure(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (r *Server) proofRequestQR(w http.ResponseWriter, req *http.Request) {
	pr, err := r.lookup(pat.Param(req, "id"))
	if err != nil {
		writeFailure(w, err)
		return
	}

	link := pr.ShortURL
	if link == "" {
		link = pr.LongURL
	}
	if link == "" {
		util.WriteErrorf(w, http.StatusNotFound, "proof request %s has no url", pr.ID)
		return
	}

	size := defaultQRSize
	if s := req.URL.Query().Get("size"); s != "" {
		size, err = parseSize(s)
		if err != nil {
			util.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	png, err := qrcode.Encode(link, qrcode.Medium, size)
	if err != nil {
		util.WriteErrorf(w, http.StatusInternalServerError, "unable to render qr code: %v", err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (r *Server) translateTemplate(w http.ResponseWriter, req *http.Request) {
	raw := &template.ProofTemplate{}
	if err := json.NewDecoder(req.Body).Decode(raw); err != nil {
		util.WriteErrorf(w, http.StatusBadRequest, "invalid template: %v", err)
		return
	}

	t, err := template.Rebuild(raw)
	if err != nil {
		util.WriteErrorf(w, http.StatusBadRequest, "invalid template: %v", err)
		return
	}

	wire, err := r.translator.Translate(t)
	if err != nil {
		util.WriteErrorf(w, http.StatusUnprocessableEntity, "unable to translate template: %v", err)
		return
	}

	util.WriteJSON(w, http.StatusOK, wire)
}

func (r *Server) channelState(w http.ResponseWriter, _ *http.Request) {
	resp := channelResponse{
		State:     r.channel.State().String(),
		SessionID: r.channel.SessionID(),
	}
	if err := r.channel.Err(); err != nil {
		resp.Error = err.Error()
	}

	util.WriteJSON(w, http.StatusOK, resp)
}

func (r *Server) lookup(id string) (*proofrequest.ProofRequest, error) {
	pr, err := r.requests.Status(id)
	if err == nil || r.archive == nil || !errors.Is(err, proofrequest.ErrNotFound) {
		return pr, err
	}

	archived, aerr := r.archive.GetProofRequest(id)
	if aerr != nil {
		if errors.Is(aerr, datastore.ErrNotFound) {
			return nil, err
		}
		return nil, aerr
	}

	return archived, nil
}

func writeFailure(w http.ResponseWriter, err error) {
	var se *verifier.StatusError

	switch {
	case errors.Is(err, proofrequest.ErrNotFound),
		errors.Is(err, template.ErrTemplateNotFound),
		errors.Is(err, datastore.ErrNotFound):
		util.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, template.ErrInvalidTemplateID):
		util.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, presentproof.ErrUnsupportedOperator),
		errors.Is(err, presentproof.ErrDateNotNormalized),
		errors.Is(err, template.ErrUnknownFormat):
		util.WriteError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, proofrequest.ErrNoSession):
		util.WriteError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, proofrequest.ErrClosed):
		util.WriteError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &se):
		util.WriteError(w, http.StatusBadGateway, err.Error())
	default:
		util.WriteError(w, http.StatusInternalServerError, err.Error())
	}
}

func parseSize(s string) (int, error) {
	size, err := strconv.Atoi(s)
	if err != nil || size <= 0 || size > maxQRSize {
		return 0, errors.Errorf("size must be between 1 and %d", maxQRSize)
	}
	return size, nil
}

func requestLogger(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		id := req.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, id)

		start := time.Now()
		h.ServeHTTP(w, req)

		logger.WithFields(logrus.Fields{
			"requestId": id,
			"method":    req.Method,
			"path":      req.URL.Path,
			"elapsed":   time.Since(start),
		}).Debug("handled request")
	})
}
