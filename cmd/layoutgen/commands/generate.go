package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hupe1980/layoutgen"
	"github.com/hupe1980/layoutgen/attachment"
	"github.com/hupe1980/layoutgen/core"
	"github.com/hupe1980/layoutgen/generation"
	"github.com/hupe1980/layoutgen/ids"
	"github.com/hupe1980/layoutgen/internal/printer"
)

type generateFlags struct {
	provider        string
	regenerate      int
	attachJSON      string
	attachURL       string
	attachHTML      string
	output          string
	backgroundColor string
	backgroundImage string
}

func newGenerateCmd() *cobra.Command {
	f := &generateFlags{}

	cmd := &cobra.Command{
		Use:   "generate [PROMPT]",
		Short: "Generate layout variations for a prompt",
		Long: `Generate runs one batch of concurrent slot requests for the prompt and
prints the outcome of every slot. --regenerate appends further batches to the
same generation, each request told which layouts were already produced.

Examples:
  # Three hero variations with the offline mock provider
  layoutgen generate --provider mock "Hero section about coffee"

  # Restyle a section copied from the editor and keep the files
  layoutgen generate --attach-json section.json --output ./out "Minimalist design with bold typography about"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var text string
			if len(args) == 1 {
				text = args[0]
			}
			return runGenerate(cmd, f, text)
		},
	}

	cmd.Flags().StringVar(&f.provider, "provider", "", "model provider override (openai, anthropic, mock)")
	cmd.Flags().IntVar(&f.regenerate, "regenerate", 0, "additional batches to append")
	cmd.Flags().StringVar(&f.attachJSON, "attach-json", "", "attach a copied section from a JSON file")
	cmd.Flags().StringVar(&f.attachURL, "attach-url", "", "page URL of an attached section (requires --attach-html)")
	cmd.Flags().StringVar(&f.attachHTML, "attach-html", "", "HTML file holding the section picked from --attach-url")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "directory to write generated layouts to")
	cmd.Flags().StringVar(&f.backgroundColor, "background-color", "", "editor body background color")
	cmd.Flags().StringVar(&f.backgroundImage, "background-image", "", "editor body background image")

	return cmd
}

func runGenerate(cmd *cobra.Command, f *generateFlags, text string) error {
	p := printer.New(cmd.OutOrStdout(), cmd.ErrOrStderr())

	cfg, err := loadConfig(cmd)
	if err != nil {
		return p.Error("Invalid configuration", err.Error(), []string{"Fix the config file or omit --config to use defaults"})
	}
	if f.provider != "" {
		cfg.Provider = f.provider
		if err := cfg.Validate(); err != nil {
			return p.Error("Invalid provider", err.Error(), nil)
		}
	}

	attachments, err := readAttachments(f)
	if err != nil {
		return p.Error("Invalid attachment", err.Error(), nil)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	svc, err := buildServices(ctx, cfg)
	if err != nil {
		return p.Error("Failed to initialise services", err.Error(), nil)
	}
	defer svc.Close()

	panel, err := svc.gen.OpenPanel(ctx, func(o *layoutgen.PanelOptions) {
		o.Context = core.StaticContext(core.EditorContext{Body: core.BodyStyle{
			BackgroundColor: f.backgroundColor,
			BackgroundImage: f.backgroundImage,
		}})
	})
	if err != nil {
		return p.Error("Failed to open panel", err.Error(), nil)
	}
	defer func() { _ = panel.Close(context.WithoutCancel(ctx)) }()

	p.Highlight("Session %s\n", panel.SessionID())

	if err := panel.Generate(ctx, text, attachments); err != nil {
		return generateError(p, err)
	}
	panel.Wait()

	if _, err := regenerate(ctx, panel, text, attachments, f.regenerate); err != nil {
		return generateError(p, err)
	}
	if ctx.Err() != nil {
		p.Warning("Aborted\n")
	}

	state := panel.State()
	printResults(p, state)

	if state.Err != nil {
		return p.Error("Generation failed", state.Err.Error(), []string{
			"Check the provider API key and model",
			"Retry with --provider mock to verify the setup",
		})
	}

	if f.output != "" {
		n, err := writeResults(ctx, panel, state.Results, f.output)
		if err != nil {
			return p.Error("Failed to write results", err.Error(), nil)
		}
		p.Success("Wrote %d layouts to %s\n", n, f.output)
	}

	return nil
}

// regenerate appends up to n batches, stopping once ctx is cancelled so an
// interrupt does not burn generation budget on batches that fail at once.
func regenerate(ctx context.Context, panel *layoutgen.Panel, text string, attachments []core.Attachment, n int) (int, error) {
	done := 0
	for ; done < n; done++ {
		if ctx.Err() != nil {
			break
		}
		if err := panel.Regenerate(ctx, text, attachments); err != nil {
			return done, err
		}
		panel.Wait()
	}
	return done, nil
}

func generateError(p *printer.Printer, err error) error {
	switch {
	case errors.Is(err, core.ErrEmptyInput):
		return p.Error("Nothing to generate", err.Error(), []string{"Pass a prompt or attach a section"})
	case errors.Is(err, core.ErrLimitExceeded):
		return p.Error("Generation limit reached", err.Error(), []string{"Raise max_generations in the config"})
	default:
		return p.Error("Generation failed", err.Error(), nil)
	}
}

func readAttachments(f *generateFlags) ([]core.Attachment, error) {
	var attachments []core.Attachment

	if f.attachJSON != "" {
		data, err := os.ReadFile(f.attachJSON)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.attachJSON, err)
		}
		a, err := attachment.FromJSON(context.Background(), string(data), filepath.Base(f.attachJSON), "", nil)
		if err != nil {
			return nil, err
		}
		attachments = append(attachments, a)
	}

	if f.attachURL != "" || f.attachHTML != "" {
		if f.attachURL == "" || f.attachHTML == "" {
			return nil, errors.New("--attach-url and --attach-html must be used together")
		}
		data, err := os.ReadFile(f.attachHTML)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.attachHTML, err)
		}
		attachments = append(attachments, attachment.FromURL(string(data), f.attachURL))
	}

	return attachments, nil
}

func printResults(p *printer.Printer, s generation.State) {
	p.Info("Generation %s\n", s.GenerateID)
	if len(s.Results) == 0 {
		p.Warning("No results\n")
		return
	}
	for i, r := range s.Results {
		switch {
		case r.IsSuccess():
			p.Success("[%d] %s  %s\n", i, r.Layout.ID, r.Layout.Label)
		case r.IsError():
			p.Warning("[%d] failed\n", i)
		default:
			p.Muted("[%d] pending\n", i)
		}
	}
}

func writeResults(ctx context.Context, panel *layoutgen.Panel, results []core.SlotResult, dir string) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}

	n := 0
	for i, r := range results {
		if !r.IsSuccess() {
			continue
		}
		l := r.Layout
		base := filepath.Join(dir, resultFileName(i, l.ID))
		if err := os.WriteFile(base+".html", []byte(l.HTML), 0o644); err != nil {
			return n, err
		}
		if len(l.Template) > 0 {
			if err := os.WriteFile(base+".json", l.Template, 0o644); err != nil {
				return n, err
			}
		}
		if l.Screenshot != "" {
			png, err := panel.Screenshot(ctx, l.ID)
			if err != nil {
				return n, err
			}
			if err := os.WriteFile(base+".png", png, 0o644); err != nil {
				return n, err
			}
		}
		n++
	}
	return n, nil
}

// resultFileName names the files of slot i. The slot index keeps names unique
// and the slugged id keeps them inside the output directory.
func resultFileName(i int, layoutID string) string {
	slug := ids.Slug(layoutID)
	if slug == "" {
		slug = "layout"
	}
	return fmt.Sprintf("%02d-%s", i, slug)
}
