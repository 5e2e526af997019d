package presentproof

import (
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/scoir/proofbridge/pkg/template"
)

func ageTemplate(t *testing.T, format template.Format) *template.ProofTemplate {
	tmpl, err := template.New("tmpl-1", "Age check", format)
	require.NoError(t, err)
	require.NoError(t, tmpl.AddRequestedCredential(&template.RequestedCredential{
		CredentialID:        "person",
		Restrictions:        template.Restrictions{SchemaID: "schema-1"},
		AvailableAttributes: []string{"name", "age", "birthdate"},
	}))
	require.NoError(t, tmpl.AddRequestedAttribute("person", &template.RequestedAttribute{
		Name:                "age",
		SelectiveDisclosure: template.SelectiveDisclosure{Enabled: true, RevealValue: true},
	}))
	require.NoError(t, tmpl.AddPredicate("person", &template.Predicate{
		AttributeName: "age",
		Type:          template.PredicateInteger,
		Operator:      template.OpGreaterEqual,
		Value:         18,
		RevealResult:  true,
	}))
	return tmpl
}

func TestTranslator_Translate(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		tmpl := ageTemplate(t, template.FormatW3CSDJWT)

		req, err := New().Translate(tmpl)
		require.NoError(t, err)

		require.Equal(t, "tmpl-1", req.TemplateID)
		require.Equal(t, "Age check", req.Name)
		require.Equal(t, "vc+sd-jwt", req.Format)
		require.Equal(t, "openid4vp/1.0", req.Protocol)
		require.True(t, req.AutoVerify)

		require.Len(t, req.RequestedAttributes, 1)
		require.Equal(t, []string{"age"}, req.RequestedAttributes[0].AttributeNames)
		require.Len(t, req.RequestedAttributes[0].Restrictions, 1)
		require.Equal(t, "schema-1", req.RequestedAttributes[0].Restrictions[0].SchemaID)

		require.Len(t, req.RequestedPredicates, 1)
		p := req.RequestedPredicates[0]
		require.Equal(t, "age", p.AttributeName)
		require.Equal(t, ">=", p.PType)
		require.Equal(t, int64(18), p.PValue)
		require.Equal(t, req.RequestedAttributes[0].Restrictions, p.Restrictions)

		d, err := json.Marshal(p)
		require.NoError(t, err)
		require.JSONEq(t, `{"attributeName":"age","pType":">=","pValue":18,"restrictions":[{"schemaId":"schema-1"}]}`, string(d))
	})

	t.Run("deterministic", func(t *testing.T) {
		tmpl := ageTemplate(t, template.FormatAnonCreds)
		tr := New()

		first, err := tr.Translate(tmpl)
		require.NoError(t, err)
		second, err := tr.Translate(tmpl)
		require.NoError(t, err)

		a, _ := json.Marshal(first)
		b, _ := json.Marshal(second)
		require.Equal(t, a, b)
	})

	t.Run("hidden attributes are omitted", func(t *testing.T) {
		tmpl := ageTemplate(t, template.FormatAnonCreds)
		require.NoError(t, tmpl.AddRequestedAttribute("person", &template.RequestedAttribute{
			Name:                "name",
			SelectiveDisclosure: template.SelectiveDisclosure{Enabled: true, RevealValue: false},
		}))

		req, err := New().Translate(tmpl)
		require.NoError(t, err)
		require.Equal(t, []string{"age"}, req.RequestedAttributes[0].AttributeNames)
	})

	t.Run("no group when every attribute is hidden", func(t *testing.T) {
		tmpl := ageTemplate(t, template.FormatAnonCreds)
		require.NoError(t, tmpl.RemoveRequestedAttribute("person", "age"))
		require.NoError(t, tmpl.AddRequestedAttribute("person", &template.RequestedAttribute{
			Name:                "name",
			SelectiveDisclosure: template.SelectiveDisclosure{Enabled: true},
		}))

		req, err := New().Translate(tmpl)
		require.NoError(t, err)
		require.Empty(t, req.RequestedAttributes)
		require.Len(t, req.RequestedPredicates, 1)
	})

	t.Run("empty restrictions are omitted", func(t *testing.T) {
		tmpl, err := template.New("t", "n", template.FormatW3CJSONLD)
		require.NoError(t, err)
		require.NoError(t, tmpl.AddRequestedCredential(&template.RequestedCredential{
			CredentialID:        "c",
			AvailableAttributes: []string{"a"},
			RequestedAttributes: []*template.RequestedAttribute{{Name: "a"}},
		}))

		req, err := New(WithAutoVerify(false)).Translate(tmpl)
		require.NoError(t, err)
		require.False(t, req.AutoVerify)
		require.Nil(t, req.RequestedAttributes[0].Restrictions)
		require.Equal(t, "dif/presentation-exchange/definitions@v1.0", req.Format)
	})

	t.Run("equality operators are rejected", func(t *testing.T) {
		tmpl := ageTemplate(t, template.FormatAnonCreds)
		require.NoError(t, tmpl.AddPredicate("person", &template.Predicate{
			AttributeName: "age", Type: template.PredicateInteger, Operator: template.OpNotEqual, Value: 21,
		}))

		_, err := New().Translate(tmpl)
		require.True(t, errors.Is(err, ErrUnsupportedOperator))
	})

	t.Run("date predicates need an encoder", func(t *testing.T) {
		tmpl := ageTemplate(t, template.FormatAnonCreds)
		require.NoError(t, tmpl.AddPredicate("person", &template.Predicate{
			AttributeName: "birthdate", Type: template.PredicateDate, Operator: template.OpLessEqual, Value: "2006-10-19",
		}))

		_, err := New().Translate(tmpl)
		require.True(t, errors.Is(err, ErrDateNotNormalized))

		req, err := New(WithDateEncoder(DateInt)).Translate(tmpl)
		require.NoError(t, err)
		require.Len(t, req.RequestedPredicates, 2)
		require.Equal(t, int64(20061019), req.RequestedPredicates[1].PValue)
	})

	t.Run("unknown format", func(t *testing.T) {
		tmpl := &template.ProofTemplate{ID: "t", Format: "x509"}

		_, err := New().Translate(tmpl)
		require.True(t, errors.Is(err, template.ErrUnknownFormat))
	})
}

func TestProtocolFor(t *testing.T) {
	for _, f := range template.Formats {
		p, err := ProtocolFor(f)
		require.NoError(t, err)
		require.NotEmpty(t, p.Format)
		require.NotEmpty(t, p.MessageProtocol)
	}
}
