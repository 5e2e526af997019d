/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package presentproof

import (
	"time"

	"github.com/pkg/errors"

	"github.com/scoir/proofbridge/pkg/schema"
	"github.com/scoir/proofbridge/pkg/template"
)

var (
	ErrUnsupportedOperator = errors.New("predicate operator has no wire representation")
	ErrDateNotNormalized   = errors.New("date predicate requires a date encoder")
)

// Protocol names the message protocol and the credential format string sent on the wire.
type Protocol struct {
	MessageProtocol string
	Format          string
}

var protocols = map[template.Format]Protocol{
	template.FormatAnonCreds: {MessageProtocol: "present-proof/2.0", Format: "anoncreds/proof-request@v1.0"},
	template.FormatW3CJSONLD: {MessageProtocol: "present-proof/2.0", Format: "dif/presentation-exchange/definitions@v1.0"},
	template.FormatW3CSDJWT:  {MessageProtocol: "openid4vp/1.0", Format: "vc+sd-jwt"},
	template.FormatMDoc:      {MessageProtocol: "openid4vp/1.0", Format: "mso_mdoc"},
}

var wireOperators = map[template.Operator]string{
	template.OpGreater:      ">",
	template.OpGreaterEqual: ">=",
	template.OpLess:         "<",
	template.OpLessEqual:    "<=",
}

func ProtocolFor(format template.Format) (Protocol, error) {
	p, ok := protocols[format]
	if !ok {
		return Protocol{}, errors.Wrapf(template.ErrUnknownFormat, "%q", format)
	}

	return p, nil
}

type Option func(opts *Translator)

// WithDateEncoder lets date predicates through, converting their dates with fn.
func WithDateEncoder(fn func(time.Time) int64) Option {
	return func(opts *Translator) {
		opts.encodeDate = fn
	}
}

func WithAutoVerify(autoVerify bool) Option {
	return func(opts *Translator) {
		opts.autoVerify = autoVerify
	}
}

// DateInt encodes a date as the integer YYYYMMDD.
func DateInt(t time.Time) int64 {
	return int64(t.Year()*10000 + int(t.Month())*100 + t.Day())
}

// Translator maps proof templates to wire proof requests. It performs no I/O.
type Translator struct {
	autoVerify bool
	encodeDate func(time.Time) int64
}

func New(opts ...Option) *Translator {
	tr := &Translator{autoVerify: true}

	for _, opt := range opts {
		opt(tr)
	}

	return tr
}

func (r *Translator) Translate(t *template.ProofTemplate) (*schema.ProofRequest, error) {
	proto, err := ProtocolFor(t.Format)
	if err != nil {
		return nil, err
	}

	out := &schema.ProofRequest{
		TemplateID:          t.ID,
		Name:                t.Name,
		Comment:             t.Description,
		Protocol:            proto.MessageProtocol,
		Format:              proto.Format,
		AutoVerify:          r.autoVerify,
		RequestedAttributes: []*schema.RequestedAttributeGroup{},
		RequestedPredicates: []*schema.RequestedPredicate{},
	}

	for _, cred := range t.RequestedCredentials {
		restrictions := restrictionsFor(cred.Restrictions)

		var names []string
		for _, attr := range cred.RequestedAttributes {
			if attr.Revealed() {
				names = append(names, attr.Name)
			}
		}

		if len(names) > 0 {
			out.RequestedAttributes = append(out.RequestedAttributes, &schema.RequestedAttributeGroup{
				AttributeNames: names,
				Restrictions:   restrictions,
			})
		}

		for _, p := range cred.Predicates {
			wp, err := r.predicate(p)
			if err != nil {
				return nil, errors.Wrapf(err, "credential %s", cred.CredentialID)
			}
			wp.Restrictions = restrictions
			out.RequestedPredicates = append(out.RequestedPredicates, wp)
		}
	}

	return out, nil
}

func (r *Translator) predicate(p *template.Predicate) (*schema.RequestedPredicate, error) {
	op, ok := wireOperators[p.Operator]
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedOperator, "%s %s", p.AttributeName, p.Operator)
	}

	var value int64
	switch p.Type {
	case template.PredicateDate:
		if r.encodeDate == nil {
			return nil, errors.Wrapf(ErrDateNotNormalized, "%s", p.AttributeName)
		}
		d, err := p.DateValue()
		if err != nil {
			return nil, err
		}
		value = r.encodeDate(d)
	default:
		v, err := p.IntValue()
		if err != nil {
			return nil, err
		}
		value = v
	}

	return &schema.RequestedPredicate{
		AttributeName: p.AttributeName,
		PType:         op,
		PValue:        value,
	}, nil
}

func restrictionsFor(r template.Restrictions) []*schema.Restriction {
	if r.SchemaID == "" && r.CredDefID == "" && r.IssuerID == "" {
		return nil
	}

	return []*schema.Restriction{{
		SchemaID:  r.SchemaID,
		CredDefID: r.CredDefID,
		IssuerID:  r.IssuerID,
	}}
}
