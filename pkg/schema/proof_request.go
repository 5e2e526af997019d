/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package schema

import "encoding/json"

// ProofRequest is the verification request payload understood by the verification service.
type ProofRequest struct {
	TemplateID          string                     `json:"templateId"`
	Name                string                     `json:"name"`
	Comment             string                     `json:"comment,omitempty"`
	Protocol            string                     `json:"protocol"`
	Format              string                     `json:"format"`
	AutoVerify          bool                       `json:"autoVerify"`
	RequestedAttributes []*RequestedAttributeGroup `json:"requestedAttributes"`
	RequestedPredicates []*RequestedPredicate      `json:"requestedPredicates"`
}

// RequestedAttributeGroup asks for several attributes that must come from one credential.
type RequestedAttributeGroup struct {
	AttributeNames []string       `json:"attributeNames"`
	Restrictions   []*Restriction `json:"restrictions,omitempty"`
}

type RequestedPredicate struct {
	AttributeName string         `json:"attributeName"`
	PType         string         `json:"pType"`
	PValue        int64          `json:"pValue"`
	Restrictions  []*Restriction `json:"restrictions,omitempty"`
}

type Restriction struct {
	SchemaID  string `json:"schemaId,omitempty"`
	CredDefID string `json:"credDefId,omitempty"`
	IssuerID  string `json:"issuerId,omitempty"`
}

// CreateProofRequest is the body of a request-creation call.
type CreateProofRequest struct {
	TemplateID      string        `json:"templateId"`
	SocketSessionID string        `json:"socketSessionId"`
	ProofRequest    *ProofRequest `json:"proofRequest,omitempty"`
}

// SocketRegistration is the body of a channel registration call.
type SocketRegistration struct {
	AppName string `json:"appName"`
}

type SocketSession struct {
	SocketSessionID string `json:"socketSessionId"`
	WebsocketURL    string `json:"websocketUrl"`
}

// ChannelMessage is one inbound push message.
type ChannelMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// EventData holds the fields of a push message payload that the bridge interprets.
type EventData struct {
	CredProofID string          `json:"credProofId,omitempty"`
	Success     *bool           `json:"success,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
	Message     string          `json:"message,omitempty"`
	Error       string          `json:"error,omitempty"`
}
