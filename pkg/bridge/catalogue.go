package bridge

import (
	"github.com/pkg/errors"

	"github.com/scoir/proofbridge/pkg/datastore"
	"github.com/scoir/proofbridge/pkg/template"
)

// Catalogues asks each catalogue in turn, moving on only when a template is missing.
type Catalogues []Catalogue

func (r Catalogues) GetTemplate(id string) (*template.ProofTemplate, error) {
	for _, c := range r {
		t, err := c.GetTemplate(id)
		if err == nil {
			return t, nil
		}
		if !errors.Is(err, template.ErrTemplateNotFound) && !errors.Is(err, datastore.ErrNotFound) {
			return nil, err
		}
	}

	return nil, errors.Wrapf(template.ErrTemplateNotFound, "%s", id)
}
