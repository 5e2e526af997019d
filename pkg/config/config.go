package config

import "github.com/scoir/proofbridge/pkg/framework"

// Provider loads a Config from file, environment and flags.
type Provider interface {
	Load(file string) (Config, error)
}

// Config exposes typed sections of the loaded settings.
type Config interface {
	WithAMQP(opts ...Option) Config
	AMQPAddress() string
	AMQPConfig() (*framework.AMQPConfig, error)

	WithDatastore(opts ...Option) Config
	DataStore() (*framework.DatastoreConfig, error)

	LogLevel() string
	AppName() string
	TemplatesDir() string

	API() (*framework.APIConfig, error)
	Verifier() (*framework.VerifierConfig, error)
	Channel() (*framework.ChannelConfig, error)
	ProofRequest() (*framework.ProofRequestConfig, error)
	Webhooks() ([]*framework.WebhookConfig, error)

	GetString(s string) string
	GetInt(s string) int

	Endpoint(s string) (*framework.Endpoint, error)

	// Err reports the first failure merging an explicitly named config file.
	Err() error
}
