package proofrequest

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/scoir/proofbridge/pkg/schema"
)

// Push message types sent by the verification service.
const (
	TypeProofScanned     = "proof_scanned"
	TypeProofRequestSent = "proof_request_sent"
	TypeProofReceived    = "proof_received"
	TypeProofVerified    = "proof_verified"
	TypeDone             = "done"
	TypeError            = "error"
)

// Event is one of ScannedEvent, RequestSentEvent, ReceivedEvent, VerifiedEvent, DoneEvent, ErrorEvent or UnknownEvent.
type Event interface {
	RequestID() string
	event()
}

type ref struct {
	ID string
}

func (r ref) RequestID() string { return r.ID }
func (r ref) event()            {}

type ScannedEvent struct{ ref }

type RequestSentEvent struct{ ref }

type ReceivedEvent struct{ ref }

type VerifiedEvent struct {
	ref
	Result json.RawMessage
}

// DoneEvent closes a flow; only a successful one moves the request.
type DoneEvent struct {
	ref
	Success bool
	Result  json.RawMessage
}

type ErrorEvent struct {
	ref
	Message string
}

// UnknownEvent carries message types this version does not interpret.
type UnknownEvent struct {
	ref
	Type string
}

// ParseEvent decodes a push message payload into its typed event.
func ParseEvent(eventType string, data json.RawMessage) (Event, error) {
	ed := &schema.EventData{}
	if len(data) > 0 && string(data) != "null" {
		if err := json.Unmarshal(data, ed); err != nil {
			return nil, errors.Wrapf(err, "invalid %s event data", eventType)
		}
	}

	id := ref{ID: ed.CredProofID}
	switch eventType {
	case TypeProofScanned:
		return ScannedEvent{id}, nil
	case TypeProofRequestSent:
		return RequestSentEvent{id}, nil
	case TypeProofReceived:
		return ReceivedEvent{id}, nil
	case TypeProofVerified:
		return VerifiedEvent{ref: id, Result: ed.Result}, nil
	case TypeDone:
		return DoneEvent{ref: id, Success: ed.Success != nil && *ed.Success, Result: ed.Result}, nil
	case TypeError:
		msg := ed.Message
		if msg == "" {
			msg = ed.Error
		}
		return ErrorEvent{ref: id, Message: msg}, nil
	default:
		return UnknownEvent{ref: id, Type: eventType}, nil
	}
}

// Update is a candidate status with the payload it carries.
type Update struct {
	Status Status
	Result json.RawMessage
	Error  string
}

// UpdateFor maps an event to its candidate update. ok is false for events that never move a request.
func UpdateFor(e Event) (u Update, ok bool) {
	switch ev := e.(type) {
	case ScannedEvent:
		return Update{Status: Scanned}, true
	case RequestSentEvent:
		return Update{Status: RequestSent}, true
	case ReceivedEvent:
		return Update{Status: ProofReceived}, true
	case VerifiedEvent:
		return Update{Status: Verified, Result: ev.Result}, true
	case DoneEvent:
		if !ev.Success {
			return Update{}, false
		}
		return Update{Status: Verified, Result: ev.Result}, true
	case ErrorEvent:
		return Update{Status: Failed, Error: ev.Message}, true
	case UnknownEvent:
		return Update{}, false
	}

	return Update{}, false
}

// UpdateFromSnapshot interprets a polled request the same way as a pushed event.
func UpdateFromSnapshot(pr *ProofRequest) (Update, bool) {
	if pr == nil || !pr.Status.Valid() {
		return Update{}, false
	}

	return Update{Status: pr.Status, Result: pr.VerificationResult, Error: pr.ErrorMessage}, true
}
