package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/petal-labs/lumen/cli/config"
	"github.com/petal-labs/lumen/core"
	"github.com/petal-labs/lumen/providers/fal"
	"github.com/petal-labs/lumen/providers/gemini"
	"github.com/petal-labs/lumen/providers/openrouter"
)

type initFlags struct {
	provider string
	force    bool
}

func (a *App) newInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file",
		Long: `Write a starter config file for the chosen default provider.

The file goes to --config, or ~/.lumen/config.yaml by default. An existing
file is kept unless --force is given.

Example:
  lumen init --provider fal`,
		Args:              cobra.NoArgs,
		PersistentPreRunE: skipConfig,
		RunE:              a.runInit,
	}

	cmd.Flags().StringVar(&a.initOpts.provider, "provider", string(core.ProviderFal), "default provider (gemini, openrouter, fal)")
	cmd.Flags().BoolVar(&a.initOpts.force, "force", false, "overwrite an existing config file")
	return cmd
}

func (a *App) runInit(cmd *cobra.Command, args []string) error {
	id := core.ProviderID(a.initOpts.provider)
	if !id.IsKnown() {
		return &exitError{code: ExitValidation, err: fmt.Errorf("unknown provider %q (available: %v)", id, core.KnownProviders)}
	}

	path := a.cfgFile
	if path == "" {
		path = config.DefaultConfigPath()
	}
	if _, err := os.Stat(path); err == nil && !a.initOpts.force {
		return &exitError{code: ExitValidation, err: fmt.Errorf("%s already exists (use --force to overwrite)", path)}
	}

	cfg := &config.Config{
		DefaultProvider: string(id),
		DefaultModel:    string(defaultModel(id)),
		Timeout:         core.DefaultTimeout,
		Locale:          "en",
		LogLevel:        "warn",
		Providers: map[string]config.ProviderConfig{
			string(id): {APIKeyRef: string(id)},
		},
	}
	if err := cfg.Save(path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	fmt.Fprintf(a.stdout, "Wrote %s\n\n", path)
	fmt.Fprintln(a.stdout, "Next steps:")
	fmt.Fprintf(a.stdout, "  lumen keys set %s    (or export %s=<your-key>)\n", id, config.APIKeyEnv(string(id)))
	fmt.Fprintln(a.stdout, `  lumen generate "a lighthouse at dusk, watercolor"`)
	return nil
}

func defaultModel(id core.ProviderID) core.ModelID {
	switch id {
	case core.ProviderGemini:
		return gemini.ModelGemini25FlashImage
	case core.ProviderOpenRouter:
		return openrouter.ModelGeminiFlashImage
	case core.ProviderFal:
		return fal.ModelFluxDev
	default:
		return ""
	}
}
