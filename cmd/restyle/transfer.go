package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hyperifyio/restyle/internal/app"
)

func addTransferFlags(fs *pflag.FlagSet, o *options) {
	fs.StringVarP(&o.reference, "reference", "r", "", "Reference .docx (or saved profile .yaml/.json) to copy styling from")
	fs.StringVarP(&o.target, "target", "t", "", "Target .docx whose content is reformatted")
	fs.StringVarP(&o.output, "output", "o", "", "Output .docx path (default "+app.DefaultOutputName+")")
	fs.StringVar(&o.outputPDF, "output.pdf", "", "Also write a PDF preview of the output")
	fs.BoolVar(&o.noManifest, "no-manifest", false, "Do not write the <output>.manifest.json sidecar")
	fs.StringVar(&o.systemPrompt, "classify.systemPrompt", "", "Override the classification system prompt")
	fs.StringVar(&o.systemPromptFile, "classify.systemPromptFile", "", "File containing the classification system prompt")
}

func newTransferCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Restyle a target document after a reference document",
		Long: `Transfer extracts the reference's heading and body styling, classifies each
paragraph of the target as heading or body and writes the restyled document.

Examples:
  restyle transfer -r corporate.docx -t draft.docx -o final.docx
  restyle transfer -r profile.yaml -t draft.docx --output.pdf final.pdf`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTransfer(cmd, o)
		},
	}
	addTransferFlags(cmd.Flags(), o)
	return cmd
}

func runTransfer(cmd *cobra.Command, o *options) error {
	cfg, err := buildConfig(cmd, o)
	if err != nil {
		return err
	}
	if err := app.ValidateConfig(cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return transfer(ctx, cfg)
}

func transfer(ctx context.Context, cfg app.Config) error {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()
	return a.Run(ctx)
}
