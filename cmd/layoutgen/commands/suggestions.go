package commands

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/layoutgen/core"
	"github.com/hupe1980/layoutgen/internal/printer"
)

func newSuggestionsCmd() *cobra.Command {
	var attachmentType string

	cmd := &cobra.Command{
		Use:   "suggestions",
		Short: "List prompt suggestions",
		Long: `List the prompt suggestions and the input placeholder offered for the
given attachment type. Without --type the defaults for a plain prompt are shown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := printer.New(cmd.OutOrStdout(), cmd.ErrOrStderr())

			cfg, err := loadConfig(cmd)
			if err != nil {
				return p.Error("Invalid configuration", err.Error(), nil)
			}

			var attachments []core.Attachment
			if attachmentType != "" {
				attachments = []core.Attachment{{Type: attachmentType}}
			}

			suggestions, placeholder := mergePrompts(cfg.Prompts).For(attachments)
			p.Muted("%s\n\n", placeholder)
			for _, s := range suggestions {
				p.Info("- %s\n", s.Text)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&attachmentType, "type", "t", "", "attachment type (json, url)")

	return cmd
}
