package template

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

var extensions = []string{".yaml", ".yml", ".json"}

// Load reads a template file (YAML or JSON) and rebuilds it through the mutation API
// so the loaded template satisfies every invariant.
func Load(path string) (*ProofTemplate, error) {
	d, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read template %s", path)
	}

	raw := &ProofTemplate{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(d, raw)
	default:
		err = yaml.Unmarshal(d, raw)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "invalid template %s", path)
	}

	return Rebuild(raw)
}

// Rebuild copies raw into a fresh template, applying every add operation in order.
func Rebuild(raw *ProofTemplate) (*ProofTemplate, error) {
	t, err := New(raw.ID, raw.Name, "")
	if err != nil {
		return nil, err
	}
	t.Description = raw.Description

	if raw.Format != "" {
		if err := t.SetFormat(raw.Format, false); err != nil {
			return nil, err
		}
	}

	for _, c := range raw.RequestedCredentials {
		if err := t.AddRequestedCredential(c); err != nil {
			return nil, errors.Wrapf(err, "template %s", raw.ID)
		}
	}

	return t, nil
}

// FileCatalogue resolves template ids to files named <id>.yaml, <id>.yml or <id>.json in Dir.
type FileCatalogue struct {
	Dir string
}

func (r *FileCatalogue) GetTemplate(id string) (*ProofTemplate, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return nil, errors.Wrapf(ErrInvalidTemplateID, "%q", id)
	}

	for _, ext := range extensions {
		path := filepath.Join(r.Dir, id+ext)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	return nil, errors.Wrapf(ErrTemplateNotFound, "%s in %s", id, r.Dir)
}
