/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scoir/proofbridge/pkg/config"
	"github.com/scoir/proofbridge/pkg/util"
)

var (
	cfgFile string
	prov    *Provider
	logger  = util.Logger("cmd")
)

var rootCmd = &cobra.Command{
	Use:   "proofbridge",
	Short: "Bridges proof templates to a credential verification service.",
	Long: `Bridges proof templates to a credential verification service.

Templates are translated into verification requests, tracked over the
verifier's realtime channel and published to webhooks as they progress.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is /etc/proofbridge/proofbridge-config.yaml)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	cp := &config.ViperConfigProvider{DefaultConfigName: "proofbridge-config"}

	conf, err := cp.Load(cfgFile)
	if err != nil {
		fmt.Println("unable to read config:", err)
		os.Exit(1)
	}

	util.SetLevel(conf.LogLevel())
	prov = NewProvider(conf)
}
