/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package datastore

import (
	"github.com/scoir/proofbridge/pkg/proofrequest"
	"github.com/scoir/proofbridge/pkg/template"
)

type Webhook struct {
	ID    string `json:"id"`
	Topic string `json:"topic"`
	URL   string `json:"url"`
}

type TemplateCriteria struct {
	Start, PageSize int
	Name            string
	Format          template.Format
}

type TemplateList struct {
	Count     int
	Templates []*template.ProofTemplate
}

type ProofRequestCriteria struct {
	Start, PageSize int
	TemplateID      string
	Status          proofrequest.Status
}

type ProofRequestList struct {
	Count         int
	ProofRequests []*proofrequest.ProofRequest
}
