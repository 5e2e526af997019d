/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/scoir/proofbridge/pkg/notifier"
)

var notifierCmd = &cobra.Command{
	Use:   "notifier",
	Short: "Starts the webhook notifier",
	Long:  `Relays proof request notifications from the message queue to registered webhooks`,
	Args:  cobra.NoArgs,
	RunE:  runNotifier,
}

func runNotifier(_ *cobra.Command, _ []string) error {
	logger.Info("starting webhook notifier")
	defer prov.Close()

	_, err := prov.Datastore()
	if err != nil {
		return err
	}

	srv, err := notifier.New(prov)
	if err != nil {
		return errors.Wrap(err, "unable to launch webhook notifier")
	}

	errCh, err := srv.Errors()
	if err != nil {
		return err
	}
	go func() {
		for err := range errCh {
			logger.WithError(err).Warn("webhook delivery failed")
		}
	}()

	return srv.Start()
}

func init() {
	rootCmd.AddCommand(notifierCmd)
}
