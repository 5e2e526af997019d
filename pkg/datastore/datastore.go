/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package datastore

import (
	"github.com/pkg/errors"

	"github.com/scoir/proofbridge/pkg/proofrequest"
	"github.com/scoir/proofbridge/pkg/template"
)

const (
	TemplateC     = "ProofTemplate"
	WebhookC      = "Webhook"
	ProofRequestC = "ProofRequest"
)

var ErrNotFound = errors.New("not found")

// Provider storage provider interface
type Provider interface {
	// OpenStore opens a store with given name space and returns the handle
	OpenStore(name string) (Store, error)

	// CloseStore closes store of given name space
	CloseStore(name string) error

	// Close closes all stores created under this store provider
	Close() error
}

//go:generate mockery -name=Store
type Store interface {
	InsertTemplate(t *template.ProofTemplate) error
	GetTemplate(id string) (*template.ProofTemplate, error)
	ListTemplates(c *TemplateCriteria) (*TemplateList, error)
	DeleteTemplate(id string) error

	InsertWebhook(hook *Webhook) (string, error)
	ListWebhooks(topic string) ([]*Webhook, error)
	DeleteWebhook(id string) error

	// SaveProofRequest inserts or replaces the archived snapshot of a request.
	SaveProofRequest(pr *proofrequest.ProofRequest) error
	GetProofRequest(id string) (*proofrequest.ProofRequest, error)
	ListProofRequests(c *ProofRequestCriteria) (*ProofRequestList, error)
}
