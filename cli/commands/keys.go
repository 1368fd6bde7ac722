package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/petal-labs/lumen/cli/keystore"
)

func (a *App) newKeysCommand() *cobra.Command {
	keys := &cobra.Command{
		Use:   "keys",
		Short: "Manage API keys",
		Long: `Manage provider API keys. Keys are stored encrypted in ~/.lumen/keys.enc.

Environment variables (GEMINI_API_KEY, OPENROUTER_API_KEY, FAL_KEY) take
precedence over stored keys.`,
	}

	keys.AddCommand(&cobra.Command{
		Use:   "set <name>",
		Short: "Store an API key",
		Long:  `Store an API key under a name, usually the provider ID. The key is prompted without echo.`,
		Args:  cobra.ExactArgs(1),
		RunE:  a.runKeysSet,
	})
	keys.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored API keys",
		Long:  `List stored key names. Key values are never shown.`,
		Args:  cobra.NoArgs,
		RunE:  a.runKeysList,
	})
	keys.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a stored API key",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runKeysDelete,
	})

	return keys
}

func (a *App) runKeysSet(cmd *cobra.Command, args []string) error {
	name := args[0]

	fmt.Fprintf(a.stderr, "Enter API key for %s: ", name)
	apiKey, err := a.readSecret()
	if err != nil {
		return fmt.Errorf("failed to read key: %w", err)
	}
	if apiKey == "" {
		return &exitError{code: ExitValidation, err: errors.New("API key cannot be empty")}
	}

	ks, err := a.keystore()
	if err != nil {
		return fmt.Errorf("failed to open keystore: %w", err)
	}
	if err := ks.Set(name, apiKey); err != nil {
		return fmt.Errorf("failed to store key: %w", err)
	}

	fmt.Fprintf(a.stdout, "API key for %s stored.\n", name)
	return nil
}

// readSecret reads one line from stdin, without echo when it is a terminal.
func (a *App) readSecret() (string, error) {
	if f, ok := a.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(a.stderr)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(a.stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (a *App) runKeysList(cmd *cobra.Command, args []string) error {
	ks, err := a.keystore()
	if err != nil {
		return fmt.Errorf("failed to open keystore: %w", err)
	}
	names, err := ks.List()
	if err != nil {
		return fmt.Errorf("failed to list keys: %w", err)
	}

	if a.jsonOutput {
		return writeJSON(a.stdout, names)
	}
	if len(names) == 0 {
		fmt.Fprintln(a.stdout, "No API keys stored.")
		return nil
	}
	fmt.Fprintln(a.stdout, "Stored keys:")
	for _, name := range names {
		fmt.Fprintf(a.stdout, "  - %s\n", name)
	}
	return nil
}

func (a *App) runKeysDelete(cmd *cobra.Command, args []string) error {
	name := args[0]

	ks, err := a.keystore()
	if err != nil {
		return fmt.Errorf("failed to open keystore: %w", err)
	}
	if err := ks.Delete(name); err != nil {
		var nf *keystore.ErrKeyNotFound
		if errors.As(err, &nf) {
			return &exitError{code: ExitValidation, err: fmt.Errorf("no key stored for %s", name)}
		}
		return fmt.Errorf("failed to delete key: %w", err)
	}

	fmt.Fprintf(a.stdout, "API key for %s deleted.\n", name)
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
