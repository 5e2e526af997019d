/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package proofrequest

import (
	"encoding/json"
	"time"

	"github.com/scoir/proofbridge/pkg/template"
)

type Status string

const (
	Generated     Status = "generated"
	Scanned       Status = "scanned"
	RequestSent   Status = "request-sent"
	ProofReceived Status = "proof-received"
	Verified      Status = "verified"
	Failed        Status = "failed"
	Expired       Status = "expired"
)

var ranks = map[Status]int{
	Generated:     0,
	Scanned:       1,
	RequestSent:   2,
	ProofReceived: 3,
	Verified:      4,
	Failed:        4,
	Expired:       4,
}

// Rank orders statuses; unknown statuses rank below generated.
func (r Status) Rank() int {
	rank, ok := ranks[r]
	if !ok {
		return -1
	}
	return rank
}

func (r Status) Valid() bool {
	_, ok := ranks[r]
	return ok
}

func (r Status) Terminal() bool {
	return r == Verified || r == Failed || r == Expired
}

// ProofRequest is a snapshot of one verification request.
type ProofRequest struct {
	ID                 string          `json:"id"`
	TemplateID         string          `json:"templateId"`
	Format             template.Format `json:"credentialFormat"`
	ShortURL           string          `json:"shortUrl,omitempty"`
	LongURL            string          `json:"longUrl,omitempty"`
	Status             Status          `json:"status"`
	VerificationResult json.RawMessage `json:"verificationResult,omitempty"`
	ErrorMessage       string          `json:"errorMessage,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
	VerifiedAt         *time.Time      `json:"verifiedAt,omitempty"`
}

func (r *ProofRequest) clone() *ProofRequest {
	out := *r
	if r.VerificationResult != nil {
		out.VerificationResult = append(json.RawMessage(nil), r.VerificationResult...)
	}
	if r.VerifiedAt != nil {
		t := *r.VerifiedAt
		out.VerifiedAt = &t
	}
	return &out
}
