package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/scoir/proofbridge/pkg/template"
)

var translateCmd = &cobra.Command{
	Use:   "translate <template-file>",
	Short: "Prints the verification request a template translates to",
	Args:  cobra.ExactArgs(1),
	RunE:  runTranslate,
}

func runTranslate(cmd *cobra.Command, args []string) error {
	t, err := template.Load(args[0])
	if err != nil {
		return err
	}

	wire, err := prov.translator.Translate(t)
	if err != nil {
		return errors.Wrapf(err, "unable to translate %s", t.ID)
	}

	d, err := json.MarshalIndent(wire, "", "  ")
	if err != nil {
		return errors.Wrap(err, "unable to marshal proof request")
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(d))
	return err
}

func init() {
	rootCmd.AddCommand(translateCmd)
}
