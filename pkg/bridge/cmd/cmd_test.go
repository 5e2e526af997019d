package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scoir/proofbridge/pkg/bridge"
	"github.com/scoir/proofbridge/pkg/config"
	"github.com/scoir/proofbridge/pkg/notifier"
	"github.com/scoir/proofbridge/pkg/proofrequest"
	"github.com/scoir/proofbridge/pkg/template"
)

const ageTemplate = `
id: over-18
name: Age check
credentialFormat: anoncreds
requestedCredentials:
  - credentialId: person
    availableAttributes: [name, age]
    requestedAttributes:
      - attributeName: name
    predicates:
      - attributeName: age
        predicateType: integer
        operator: ">="
        value: 18
`

func writeFile(t *testing.T, dir, name, body string) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func loadProvider(t *testing.T, body string) *Provider {
	cp := &config.ViperConfigProvider{DefaultConfigName: "proofbridge-config"}
	conf, err := cp.Load(writeFile(t, t.TempDir(), "proofbridge-config.yaml", body))
	require.NoError(t, err)
	return NewProvider(conf)
}

func TestTranslateCommand(t *testing.T) {
	dir := t.TempDir()

	t.Run("happy path", func(t *testing.T) {
		out := &bytes.Buffer{}
		rootCmd.SetOut(out)
		rootCmd.SetArgs([]string{"translate", writeFile(t, dir, "over-18.yaml", ageTemplate)})
		require.NoError(t, rootCmd.Execute())

		wire := map[string]interface{}{}
		require.NoError(t, json.Unmarshal(out.Bytes(), &wire))
		require.Equal(t, "over-18", wire["templateId"])
		preds := wire["requestedPredicates"].([]interface{})
		require.Len(t, preds, 1)
		require.Equal(t, ">=", preds[0].(map[string]interface{})["pType"])
	})

	t.Run("missing file", func(t *testing.T) {
		rootCmd.SetOut(&bytes.Buffer{})
		rootCmd.SetArgs([]string{"translate", filepath.Join(dir, "missing.yaml")})
		require.Error(t, rootCmd.Execute())
	})
}

func TestFollow(t *testing.T) {
	pr := &proofrequest.ProofRequest{ID: "pr-1"}
	move := func(id string, from, to proofrequest.Status) proofrequest.Transition {
		return proofrequest.Transition{
			From:     from,
			To:       to,
			Source:   proofrequest.SourceChannel,
			Snapshot: &proofrequest.ProofRequest{ID: id, Status: to, VerificationResult: json.RawMessage(`{"age":true}`), ErrorMessage: "declined"},
		}
	}

	t.Run("happy path", func(t *testing.T) {
		ch := make(chan proofrequest.Transition, 3)
		ch <- move("pr-1", proofrequest.Generated, proofrequest.Scanned)
		ch <- move("pr-2", proofrequest.Generated, proofrequest.Failed)
		ch <- move("pr-1", proofrequest.Scanned, proofrequest.Verified)

		out := &bytes.Buffer{}
		require.NoError(t, follow(context.Background(), out, pr, ch))
		require.Contains(t, out.String(), "generated -> scanned (channel)")
		require.Contains(t, out.String(), "scanned -> verified (channel)")
		require.Contains(t, out.String(), `{"age":true}`)
		require.NotContains(t, out.String(), "failed")
	})

	t.Run("failed", func(t *testing.T) {
		ch := make(chan proofrequest.Transition, 1)
		ch <- move("pr-1", proofrequest.ProofReceived, proofrequest.Failed)

		err := follow(context.Background(), &bytes.Buffer{}, pr, ch)
		require.Error(t, err)
		require.Contains(t, err.Error(), "declined")
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := follow(ctx, &bytes.Buffer{}, pr, make(chan proofrequest.Transition))
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestPrintLink(t *testing.T) {
	out := &bytes.Buffer{}
	printLink(out, &proofrequest.ProofRequest{ID: "pr-1", Status: proofrequest.Generated, LongURL: "https://v.example/long/1"})
	require.Contains(t, out.String(), "proof request pr-1 created (generated)")
	require.Contains(t, out.String(), "https://v.example/long/1")

	out.Reset()
	printLink(out, &proofrequest.ProofRequest{ID: "pr-2", Status: proofrequest.Generated})
	require.Equal(t, "proof request pr-2 created (generated)\n", out.String())
}

func TestProvider(t *testing.T) {
	t.Run("build", func(t *testing.T) {
		templates := t.TempDir()
		writeFile(t, templates, "over-18.yaml", ageTemplate)

		prov := loadProvider(t, "verifier:\n  url: http://127.0.0.1:1\ntemplates:\n  dir: "+templates+"\n")
		require.NoError(t, prov.Build())
		defer prov.Close()

		require.NotNil(t, prov.Requests())
		require.Nil(t, prov.Archive())
		require.Equal(t, "disconnected", prov.Channel().State().String())

		tmpl, err := prov.Catalogue().GetTemplate("over-18")
		require.NoError(t, err)
		require.Equal(t, "Age check", tmpl.Name)

		_, err = prov.Catalogue().GetTemplate("nope")
		require.ErrorIs(t, err, template.ErrTemplateNotFound)

		families, err := prov.Gatherer().Gather()
		require.NoError(t, err)
		require.NotEmpty(t, families)

		_ = bridge.New(prov)
	})

	t.Run("verifier url required", func(t *testing.T) {
		prov := loadProvider(t, "log:\n  level: debug\n")
		require.Error(t, prov.Build())
	})

	t.Run("static webhooks", func(t *testing.T) {
		prov := loadProvider(t, "webhooks:\n  - topic: proof-request\n    url: https://hooks.example/a\n")

		hooks, err := prov.GetWebhooks().ListWebhooks(notifier.TopicProofRequest)
		require.NoError(t, err)
		require.Len(t, hooks, 1)
		require.Equal(t, "https://hooks.example/a", hooks[0].URL)
	})

	t.Run("amqp not configured", func(t *testing.T) {
		prov := loadProvider(t, "log:\n  level: info\n")
		require.Nil(t, prov.GetAMQPListener(notifier.QueueName))

		_, err := notifier.New(prov)
		require.Error(t, err)
	})
}
