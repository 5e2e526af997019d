/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package template

import (
	"time"

	"github.com/pkg/errors"
)

type Format string

const (
	FormatAnonCreds Format = "anoncreds"
	FormatW3CJSONLD Format = "w3c-jsonld"
	FormatW3CSDJWT  Format = "w3c-sd-jwt"
	FormatMDoc      Format = "iso-18013-5"
)

// Formats lists every supported credential format.
var Formats = []Format{FormatAnonCreds, FormatW3CJSONLD, FormatW3CSDJWT, FormatMDoc}

func (r Format) Valid() bool {
	for _, f := range Formats {
		if f == r {
			return true
		}
	}
	return false
}

type PredicateType string

const (
	PredicateInteger PredicateType = "integer"
	PredicateDate    PredicateType = "date"
)

type Operator string

const (
	OpGreater      Operator = ">"
	OpGreaterEqual Operator = ">="
	OpLess         Operator = "<"
	OpLessEqual    Operator = "<="
	OpEqual        Operator = "=="
	OpNotEqual     Operator = "!="
)

func (r Operator) Valid() bool {
	switch r {
	case OpGreater, OpGreaterEqual, OpLess, OpLessEqual, OpEqual, OpNotEqual:
		return true
	}
	return false
}

var (
	ErrUnknownAttribute     = errors.New("unknown attribute")
	ErrTypeMismatch         = errors.New("predicate value does not match predicate type")
	ErrConfirmationRequired = errors.New("changing format clears requested credentials and must be confirmed")
	ErrUnknownFormat        = errors.New("unknown credential format")
	ErrFormatNotSet         = errors.New("credential format not set")
	ErrDuplicateAttribute   = errors.New("attribute already requested")
	ErrDuplicateCredential  = errors.New("credential already requested")
	ErrCredentialNotFound   = errors.New("requested credential not found")
	ErrInvalidOperator      = errors.New("invalid predicate operator")
	ErrTemplateNotFound     = errors.New("template not found")
	ErrInvalidTemplateID    = errors.New("invalid template id")
)

// ProofTemplate describes which credential attributes and predicates a verifier asks for.
// All requested credentials share the template format.
type ProofTemplate struct {
	ID                   string                 `json:"id" yaml:"id"`
	Name                 string                 `json:"name" yaml:"name"`
	Description          string                 `json:"description,omitempty" yaml:"description,omitempty"`
	Format               Format                 `json:"credentialFormat" yaml:"credentialFormat"`
	RequestedCredentials []*RequestedCredential `json:"requestedCredentials" yaml:"requestedCredentials"`
}

type Restrictions struct {
	SchemaID  string `json:"schemaId" yaml:"schemaId"`
	CredDefID string `json:"credDefId,omitempty" yaml:"credDefId,omitempty"`
	IssuerID  string `json:"issuerId,omitempty" yaml:"issuerId,omitempty"`
}

// RequestedCredential references a catalogue credential by id; the catalogue owns it.
type RequestedCredential struct {
	CredentialID        string                `json:"credentialId" yaml:"credentialId"`
	Name                string                `json:"name" yaml:"name"`
	Restrictions        Restrictions          `json:"restrictions" yaml:"restrictions"`
	AvailableAttributes []string              `json:"availableAttributes" yaml:"availableAttributes"`
	RequestedAttributes []*RequestedAttribute `json:"requestedAttributes" yaml:"requestedAttributes"`
	Predicates          []*Predicate          `json:"predicates" yaml:"predicates"`
}

type SelectiveDisclosure struct {
	Enabled     bool `json:"enabled" yaml:"enabled"`
	RevealValue bool `json:"revealValue" yaml:"revealValue"`
}

type RequestedAttribute struct {
	Name                string              `json:"attributeName" yaml:"attributeName"`
	Label               string              `json:"label" yaml:"label"`
	Required            bool                `json:"required" yaml:"required"`
	SelectiveDisclosure SelectiveDisclosure `json:"selectiveDisclosure" yaml:"selectiveDisclosure"`
}

// Revealed reports whether the attribute value is disclosed. Hiding a value requires
// selective disclosure to be enabled.
func (r *RequestedAttribute) Revealed() bool {
	return !r.SelectiveDisclosure.Enabled || r.SelectiveDisclosure.RevealValue
}

// Predicate is a comparison over one attribute. Value holds an int64 for integer predicates
// and an ISO-8601 date string for date predicates.
type Predicate struct {
	AttributeName string        `json:"attributeName" yaml:"attributeName"`
	Type          PredicateType `json:"predicateType" yaml:"predicateType"`
	Operator      Operator      `json:"operator" yaml:"operator"`
	Value         interface{}   `json:"value" yaml:"value"`
	RevealResult  bool          `json:"revealResult" yaml:"revealResult"`
}

// IntValue returns the integer value of an integer predicate.
func (r *Predicate) IntValue() (int64, error) {
	if r.Type != PredicateInteger {
		return 0, errors.Wrapf(ErrTypeMismatch, "%s predicate has no integer value", r.Type)
	}

	v, ok := r.Value.(int64)
	if !ok {
		return 0, errors.Wrapf(ErrTypeMismatch, "value %v is not an integer", r.Value)
	}

	return v, nil
}

// DateValue returns the date of a date predicate.
func (r *Predicate) DateValue() (time.Time, error) {
	if r.Type != PredicateDate {
		return time.Time{}, errors.Wrapf(ErrTypeMismatch, "%s predicate has no date value", r.Type)
	}

	s, ok := r.Value.(string)
	if !ok {
		return time.Time{}, errors.Wrapf(ErrTypeMismatch, "value %v is not a date string", r.Value)
	}

	return parseDate(s)
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, errors.Wrapf(ErrTypeMismatch, "%q is not an ISO-8601 date", s)
	}

	return t, nil
}

// normalize checks the operator and coerces Value into the representation its type requires.
func (r *Predicate) normalize() error {
	if !r.Operator.Valid() {
		return errors.Wrapf(ErrInvalidOperator, "%q", r.Operator)
	}

	switch r.Type {
	case PredicateInteger:
		v, ok := toInt64(r.Value)
		if !ok {
			return errors.Wrapf(ErrTypeMismatch, "integer predicate on %s has value %v (%T)", r.AttributeName, r.Value, r.Value)
		}
		r.Value = v
	case PredicateDate:
		if t, ok := r.Value.(time.Time); ok {
			r.Value = t.Format("2006-01-02")
		}
		s, ok := r.Value.(string)
		if !ok {
			return errors.Wrapf(ErrTypeMismatch, "date predicate on %s has value %v (%T)", r.AttributeName, r.Value, r.Value)
		}
		if _, err := parseDate(s); err != nil {
			return err
		}
	default:
		return errors.Wrapf(ErrTypeMismatch, "unknown predicate type %q", r.Type)
	}

	return nil
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		// JSON numbers decode as float64
		if n != float64(int64(n)) {
			return 0, false
		}
		return int64(n), true
	}
	return 0, false
}
