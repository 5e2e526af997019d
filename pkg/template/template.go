package template

import (
	"github.com/pkg/errors"
)

// New creates an empty template. The format may be left empty and set later.
func New(id, name string, format Format) (*ProofTemplate, error) {
	if format != "" && !format.Valid() {
		return nil, errors.Wrapf(ErrUnknownFormat, "%q", format)
	}

	return &ProofTemplate{ID: id, Name: name, Format: format}, nil
}

// SetFormat changes the credential format. When credentials are already requested the caller
// must confirm, and the requested credentials are cleared.
func (r *ProofTemplate) SetFormat(format Format, confirm bool) error {
	if !format.Valid() {
		return errors.Wrapf(ErrUnknownFormat, "%q", format)
	}

	if format == r.Format {
		return nil
	}

	if len(r.RequestedCredentials) > 0 {
		if !confirm {
			return errors.Wrapf(ErrConfirmationRequired, "%d requested credentials would be removed", len(r.RequestedCredentials))
		}
		r.RequestedCredentials = nil
	}

	r.Format = format
	return nil
}

// AddRequestedCredential appends a credential, validating any attributes and predicates it already carries.
func (r *ProofTemplate) AddRequestedCredential(cred *RequestedCredential) error {
	if r.Format == "" {
		return ErrFormatNotSet
	}

	if _, err := r.credential(cred.CredentialID); err == nil {
		return errors.Wrapf(ErrDuplicateCredential, "%s", cred.CredentialID)
	}

	c := &RequestedCredential{
		CredentialID:        cred.CredentialID,
		Name:                cred.Name,
		Restrictions:        cred.Restrictions,
		AvailableAttributes: append([]string(nil), cred.AvailableAttributes...),
	}

	for _, attr := range cred.RequestedAttributes {
		if err := c.addAttribute(attr); err != nil {
			return err
		}
	}

	for _, p := range cred.Predicates {
		if err := c.addPredicate(p); err != nil {
			return err
		}
	}

	r.RequestedCredentials = append(r.RequestedCredentials, c)
	return nil
}

func (r *ProofTemplate) RemoveRequestedCredential(credentialID string) error {
	for i, c := range r.RequestedCredentials {
		if c.CredentialID == credentialID {
			r.RequestedCredentials = append(r.RequestedCredentials[:i], r.RequestedCredentials[i+1:]...)
			return nil
		}
	}

	return errors.Wrapf(ErrCredentialNotFound, "%s", credentialID)
}

func (r *ProofTemplate) AddRequestedAttribute(credentialID string, attr *RequestedAttribute) error {
	c, err := r.credential(credentialID)
	if err != nil {
		return err
	}

	return c.addAttribute(attr)
}

func (r *ProofTemplate) RemoveRequestedAttribute(credentialID, name string) error {
	c, err := r.credential(credentialID)
	if err != nil {
		return err
	}

	for i, a := range c.RequestedAttributes {
		if a.Name == name {
			c.RequestedAttributes = append(c.RequestedAttributes[:i], c.RequestedAttributes[i+1:]...)
			return nil
		}
	}

	return errors.Wrapf(ErrUnknownAttribute, "%s is not requested from %s", name, credentialID)
}

// AddPredicate appends a predicate. Several predicates may target the same attribute.
func (r *ProofTemplate) AddPredicate(credentialID string, p *Predicate) error {
	c, err := r.credential(credentialID)
	if err != nil {
		return err
	}

	return c.addPredicate(p)
}

// RemovePredicate removes the predicate at index within the credential's predicate list.
func (r *ProofTemplate) RemovePredicate(credentialID string, index int) error {
	c, err := r.credential(credentialID)
	if err != nil {
		return err
	}

	if index < 0 || index >= len(c.Predicates) {
		return errors.Errorf("predicate index %d out of range for %s", index, credentialID)
	}

	c.Predicates = append(c.Predicates[:index], c.Predicates[index+1:]...)
	return nil
}

// Validate rechecks every invariant, for templates built outside the mutation API.
func (r *ProofTemplate) Validate() error {
	if !r.Format.Valid() {
		return errors.Wrapf(ErrUnknownFormat, "%q", r.Format)
	}

	seen := map[string]bool{}
	for _, c := range r.RequestedCredentials {
		if seen[c.CredentialID] {
			return errors.Wrapf(ErrDuplicateCredential, "%s", c.CredentialID)
		}
		seen[c.CredentialID] = true

		names := map[string]bool{}
		for _, a := range c.RequestedAttributes {
			if !c.available(a.Name) {
				return errors.Wrapf(ErrUnknownAttribute, "%s not offered by %s", a.Name, c.CredentialID)
			}
			if names[a.Name] {
				return errors.Wrapf(ErrDuplicateAttribute, "%s on %s", a.Name, c.CredentialID)
			}
			names[a.Name] = true
		}

		for _, p := range c.Predicates {
			if !c.available(p.AttributeName) {
				return errors.Wrapf(ErrUnknownAttribute, "%s not offered by %s", p.AttributeName, c.CredentialID)
			}
			if err := p.normalize(); err != nil {
				return err
			}
		}
	}

	return nil
}

func (r *ProofTemplate) credential(id string) (*RequestedCredential, error) {
	for _, c := range r.RequestedCredentials {
		if c.CredentialID == id {
			return c, nil
		}
	}

	return nil, errors.Wrapf(ErrCredentialNotFound, "%s", id)
}

func (r *RequestedCredential) available(name string) bool {
	for _, a := range r.AvailableAttributes {
		if a == name {
			return true
		}
	}
	return false
}

func (r *RequestedCredential) addAttribute(attr *RequestedAttribute) error {
	if !r.available(attr.Name) {
		return errors.Wrapf(ErrUnknownAttribute, "%s not offered by %s", attr.Name, r.CredentialID)
	}

	for _, a := range r.RequestedAttributes {
		if a.Name == attr.Name {
			return errors.Wrapf(ErrDuplicateAttribute, "%s on %s", attr.Name, r.CredentialID)
		}
	}

	a := *attr
	if a.Label == "" {
		a.Label = a.Name
	}
	r.RequestedAttributes = append(r.RequestedAttributes, &a)
	return nil
}

func (r *RequestedCredential) addPredicate(p *Predicate) error {
	if !r.available(p.AttributeName) {
		return errors.Wrapf(ErrUnknownAttribute, "%s not offered by %s", p.AttributeName, r.CredentialID)
	}

	np := *p
	if err := np.normalize(); err != nil {
		return err
	}

	r.Predicates = append(r.Predicates, &np)
	return nil
}
