package config

import (
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/scoir/proofbridge/pkg/framework"
	"github.com/scoir/proofbridge/pkg/util"
)

const (
	defaultAMQP      = "proofbridge-amqp-config"
	defaultDataStore = "proofbridge-data-store-config"

	envPrefix = "PROOFBRIDGE"
)

var logger = util.Logger("config")

var defaults = map[string]interface{}{
	"log.level":                 "info",
	"bridge.appName":            "proofbridge",
	"api.host":                  "0.0.0.0",
	"api.port":                  8080,
	"api.allowedOrigins":        []string{"*"},
	"verifier.url":              "",
	"verifier.retries":          2,
	"verifier.timeout":          10 * time.Second,
	"channel.reconnect":         true,
	"channel.reconnectDelay":    3 * time.Second,
	"channel.maxReconnectDelay": time.Duration(0),
	"proofRequest.pollInterval": 3 * time.Second,
	"proofRequest.expireAfter":  5 * time.Minute,
	"templates.dir":             "./templates",
	"amqp.host":                 "",
	"amqp.port":                 5672,
	"amqp.user":                 "",
	"amqp.password":             "",
	"amqp.vhost":                "",
	"amqp.durable":              false,
	"datastore.database":        "",
	"datastore.mongo.url":       "",
	"datastore.mongo.database":  "",
}

// Option adjusts how an optional section file is merged.
type Option func(opts *vpr)

// WithFile merges the given file instead of the default one.
func WithFile(file string) Option {
	return func(opts *vpr) {
		opts.file = file
	}
}

type ViperConfigProvider struct {
	DefaultConfigName string
}

type vpr struct {
	*viper.Viper
	file string
	err  error
}

func (r *ViperConfigProvider) Load(file string) (Config, error) {
	config := &vpr{Viper: viper.New()}

	for k, v := range defaults {
		config.SetDefault(k, v)
	}

	if file != "" {
		config.SetConfigFile(file)
	} else {
		config.SetConfigType("yaml")
		config.AddConfigPath("/etc/proofbridge/")
		config.AddConfigPath("./deploy/")
		config.SetConfigName(r.DefaultConfigName)
	}

	config.SetEnvPrefix(envPrefix)
	config.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	config.AutomaticEnv()

	err := config.BindPFlags(pflag.CommandLine)
	if err != nil {
		return nil, errors.Wrap(err, "failed to bind flags")
	}

	err = config.ReadInConfig()
	if err != nil {
		var nf viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &nf) {
			return nil, errors.Wrapf(err, "failed to read config %s", config.ConfigFileUsed())
		}
		logger.Infof("no %s config found, using defaults", r.DefaultConfigName)
	}

	return config, nil
}

func (r *vpr) WithDatastore(opts ...Option) Config {
	for _, opt := range opts {
		opt(r)
	}

	return r.with(r.file, defaultDataStore)
}

func (r *vpr) WithAMQP(opts ...Option) Config {
	for _, opt := range opts {
		opt(r)
	}

	return r.with(r.file, defaultAMQP)
}

func (r *vpr) with(file, defawlt string) Config {
	r.file = ""
	if file != "" {
		return r.withFile(r.SetConfigFile, file, true)
	}

	return r.withFile(r.SetConfigName, defawlt, false)
}

// withFile merges one more file. A missing default file is not an error.
func (r *vpr) withFile(setter func(name string), file string, explicit bool) Config {
	setter(file)

	err := r.MergeInConfig()
	if err == nil {
		return r
	}

	var nf viper.ConfigFileNotFoundError
	if !explicit && errors.As(err, &nf) {
		logger.Debugf("no %s config found", file)
		return r
	}

	if r.err == nil {
		r.err = errors.Wrapf(err, "failed to merge %s", file)
	}
	return r
}

func (r *vpr) Err() error {
	return r.err
}

func (r *vpr) LogLevel() string {
	return r.GetString("log.level")
}

func (r *vpr) AppName() string {
	return r.GetString("bridge.appName")
}

func (r *vpr) TemplatesDir() string {
	return r.GetString("templates.dir")
}

func (r *vpr) AMQPAddress() string {
	cfg, err := r.AMQPConfig()
	if err != nil {
		return ""
	}

	return cfg.Endpoint()
}

func (r *vpr) AMQPConfig() (*framework.AMQPConfig, error) {
	config := &framework.AMQPConfig{}

	err := r.unmarshal("amqp", config)
	if err != nil {
		return nil, err
	}

	if config.Host == "" {
		return nil, errors.New("amqp.host is not configured")
	}

	return config, nil
}

func (r *vpr) DataStore() (*framework.DatastoreConfig, error) {
	dc := &framework.DatastoreConfig{}

	err := r.unmarshal("datastore", dc)
	if err != nil {
		return nil, err
	}

	return dc, nil
}

func (r *vpr) API() (*framework.APIConfig, error) {
	api := &framework.APIConfig{}
	return api, r.unmarshal("api", api)
}

func (r *vpr) Verifier() (*framework.VerifierConfig, error) {
	vc := &framework.VerifierConfig{}
	if err := r.unmarshal("verifier", vc); err != nil {
		return nil, err
	}

	if vc.URL == "" {
		return nil, errors.New("verifier.url is required")
	}

	return vc, nil
}

func (r *vpr) Channel() (*framework.ChannelConfig, error) {
	cc := &framework.ChannelConfig{}
	return cc, r.unmarshal("channel", cc)
}

func (r *vpr) ProofRequest() (*framework.ProofRequestConfig, error) {
	pc := &framework.ProofRequestConfig{}
	if err := r.unmarshal("proofRequest", pc); err != nil {
		return nil, err
	}

	if pc.PollInterval <= 0 {
		return nil, errors.Errorf("proofRequest.pollInterval must be positive, got %s", pc.PollInterval)
	}

	return pc, nil
}

func (r *vpr) Webhooks() ([]*framework.WebhookConfig, error) {
	var hooks []*framework.WebhookConfig
	return hooks, r.unmarshal("webhooks", &hooks)
}

func (r *vpr) Endpoint(key string) (*framework.Endpoint, error) {
	ep := &framework.Endpoint{}

	err := r.unmarshal(key, ep)
	if err != nil {
		return nil, err
	}

	return ep, nil
}

// unmarshal decodes the merged settings under key. UnmarshalKey on viper
// skips defaults and env overrides below a nested key, AllSettings does not.
func (r *vpr) unmarshal(key string, out interface{}) error {
	var val interface{} = r.AllSettings()
	for _, part := range strings.Split(strings.ToLower(key), ".") {
		m, ok := val.(map[string]interface{})
		if !ok {
			return nil
		}
		if val, ok = m[part]; !ok {
			return nil
		}
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return errors.Wrap(err, "unable to create decoder")
	}

	return errors.Wrapf(dec.Decode(val), "failed to load key %s", key)
}
