/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package framework

import (
	"fmt"
	"net/url"
	"time"
)

type Endpoint struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Token    string `mapstructure:"token"`
}

func (r Endpoint) Address() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type AMQPConfig struct {
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	VHost    string `mapstructure:"vhost"`
	Durable  bool   `mapstructure:"durable"`
}

func (r *AMQPConfig) Endpoint() string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(r.User, r.Password),
		Host:   fmt.Sprintf("%s:%d", r.Host, r.Port),
		Path:   "/" + r.VHost,
	}
	return u.String()
}

// APIConfig is the HTTP API listener.
type APIConfig struct {
	Endpoint       `mapstructure:",squash"`
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

type VerifierConfig struct {
	URL     string        `mapstructure:"url"`
	Retries int           `mapstructure:"retries"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type ChannelConfig struct {
	Reconnect         bool          `mapstructure:"reconnect"`
	ReconnectDelay    time.Duration `mapstructure:"reconnectDelay"`
	MaxReconnectDelay time.Duration `mapstructure:"maxReconnectDelay"`
}

type ProofRequestConfig struct {
	PollInterval time.Duration `mapstructure:"pollInterval"`
	ExpireAfter  time.Duration `mapstructure:"expireAfter"`
}

type WebhookConfig struct {
	Topic string `mapstructure:"topic"`
	URL   string `mapstructure:"url"`
}
