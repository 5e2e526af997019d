/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/scoir/proofbridge/pkg/bridge"
	"github.com/scoir/proofbridge/pkg/channel"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the proof bridge API",
	Long:  `Registers with the verification service, opens its realtime channel and serves the proof request API`,
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := prov.Build()
	if err != nil {
		return errors.Wrap(err, "unable to configure proof bridge")
	}
	defer prov.Close()

	api, err := prov.conf.API()
	if err != nil {
		return err
	}

	err = prov.channel.Start(ctx)
	if err != nil {
		var re *channel.RegistrationError
		if errors.As(err, &re) {
			return errors.Wrap(err, "unable to register with verification service")
		}
		logger.WithError(err).Warn("realtime channel not connected yet, status updates rely on polling until it is")
	}

	srv := bridge.New(prov, bridge.WithAllowedOrigins(api.AllowedOrigins))
	return srv.ListenAndServe(ctx, api.Address())
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
