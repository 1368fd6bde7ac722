package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/petal-labs/lumen/cli/config"
	"github.com/petal-labs/lumen/core"
	"github.com/petal-labs/lumen/providers"
)

type providerInfo struct {
	ID     string           `json:"id"`
	Key    keySource        `json:"key"`
	KeyEnv string           `json:"key_env"`
	Models []core.ModelInfo `json:"models"`
}

func (a *App) newProvidersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List providers, key status and known models",
		Args:  cobra.NoArgs,
		RunE:  a.runProviders,
	}
}

func (a *App) runProviders(cmd *cobra.Command, args []string) error {
	var infos []providerInfo
	for _, id := range providers.List() {
		_, src := a.resolveKey(id)
		info := providerInfo{
			ID:     string(id),
			Key:    src,
			KeyEnv: config.APIKeyEnv(string(id)),
		}
		adapter, err := providers.Create(id, a.settings(id, ""))
		if err != nil {
			return err
		}
		if lister, ok := adapter.(core.ModelLister); ok {
			info.Models = lister.Models()
		}
		infos = append(infos, info)
	}

	if a.jsonOutput {
		return writeJSON(a.stdout, infos)
	}
	for _, info := range infos {
		fmt.Fprintf(a.stdout, "%s (key: %s, env %s)\n", info.ID, info.Key, info.KeyEnv)
		for _, m := range info.Models {
			fmt.Fprintf(a.stdout, "  %-40s %s\n", m.ID, m.DisplayName)
		}
	}
	return nil
}
