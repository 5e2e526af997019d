package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mdp/qrterminal/v3"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/scoir/proofbridge/pkg/channel"
	"github.com/scoir/proofbridge/pkg/proofrequest"
	"github.com/scoir/proofbridge/pkg/template"
)

var requestCmd = &cobra.Command{
	Use:   "request <template-file>",
	Short: "Creates a proof request and follows it until it finishes",
	Long: `Creates a proof request from a template file, prints its link as a QR code
and prints every status change until the request is verified, failed or expired`,
	Args: cobra.ExactArgs(1),
	RunE: runRequest,
}

func runRequest(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	t, err := template.Load(args[0])
	if err != nil {
		return err
	}

	transitions := make(chan proofrequest.Transition, 16)
	err = prov.Build(proofrequest.WithTransitionHandler(func(tr proofrequest.Transition) {
		select {
		case transitions <- tr:
		case <-ctx.Done():
		}
	}))
	if err != nil {
		return errors.Wrap(err, "unable to configure proof bridge")
	}
	defer prov.Close()

	err = prov.channel.Start(ctx)
	if err != nil {
		var re *channel.RegistrationError
		if errors.As(err, &re) {
			return errors.Wrap(err, "unable to register with verification service")
		}
		logger.WithError(err).Warn("realtime channel not connected, following by polling")
	}

	pr, err := prov.requests.CreateRequest(ctx, t)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printLink(out, pr)

	return follow(ctx, out, pr, transitions)
}

func printLink(out io.Writer, pr *proofrequest.ProofRequest) {
	link := pr.ShortURL
	if link == "" {
		link = pr.LongURL
	}

	fmt.Fprintf(out, "proof request %s created (%s)\n", pr.ID, pr.Status)
	if link == "" {
		return
	}

	qrterminal.GenerateWithConfig(link, qrterminal.Config{
		Level:     qrterminal.M,
		Writer:    out,
		BlackChar: qrterminal.BLACK,
		WhiteChar: qrterminal.WHITE,
		QuietZone: 1,
	})
	fmt.Fprintln(out, link)
}

// follow prints transitions of pr until it reaches a terminal status.
func follow(ctx context.Context, out io.Writer, pr *proofrequest.ProofRequest, transitions <-chan proofrequest.Transition) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case tr := <-transitions:
			if tr.Snapshot.ID != pr.ID {
				continue
			}

			fmt.Fprintf(out, "%s -> %s (%s)\n", tr.From, tr.To, tr.Source)
			if !tr.To.Terminal() {
				continue
			}

			if tr.To != proofrequest.Verified {
				return errors.Errorf("proof request %s %s: %s", pr.ID, tr.To, tr.Snapshot.ErrorMessage)
			}
			if len(tr.Snapshot.VerificationResult) > 0 {
				fmt.Fprintln(out, string(tr.Snapshot.VerificationResult))
			}
			return nil
		}
	}
}

func init() {
	rootCmd.AddCommand(requestCmd)
}
