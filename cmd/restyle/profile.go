package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperifyio/restyle/internal/app"
	"github.com/hyperifyio/restyle/internal/profile"
)

func newProfileCmd(o *options) *cobra.Command {
	var (
		format string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "profile <reference.docx>",
		Short: "Print the style profile extracted from a reference document",
		Long: `Profile shows the heading, body and table styling found in a reference
document together with its page layout. A YAML or JSON profile can be passed
back to transfer as --reference.

Examples:
  restyle profile corporate.docx
  restyle profile corporate.docx --format markdown
  restyle profile corporate.docx -o corporate.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := buildConfig(cmd, o); err != nil {
				return err
			}
			if !cmd.Flags().Changed("format") && out != "" {
				format = formatForPath(out)
			}
			p, err := app.ExtractProfile(args[0])
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := profile.Write(&buf, p, format); err != nil {
				return err
			}
			if out == "" {
				_, err := cmd.OutOrStdout().Write(buf.Bytes())
				return err
			}
			if dir := filepath.Dir(out); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return err
				}
			}
			if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write profile: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", profile.FormatYAML, "Output format: yaml, json or markdown")
	cmd.Flags().StringVarP(&out, "output", "o", "", "Write the profile to this file instead of stdout")
	return cmd
}

func formatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return profile.FormatJSON
	case ".md", ".markdown":
		return profile.FormatMarkdown
	default:
		return profile.FormatYAML
	}
}
