package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/bookingest/internal/core/ports/driven"
)

// ConfigEditor is a config store that can enumerate its keys.
type ConfigEditor interface {
	driven.ConfigStore
	Keys() []string
}

// configOpener opens the config file without building the other services,
// so a broken configuration can still be repaired.
var configOpener func() (ConfigEditor, error)

// SetConfigOpener registers how the config command opens the config file.
func SetConfigOpener(fn func() (ConfigEditor, error)) {
	configOpener = fn
}

var configCmd = &cobra.Command{
	Use:         "config",
	Short:       "View and edit the configuration file",
	Annotations: map[string]string{"services": "none"},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show every key set in the configuration file",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print one configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long: `Sets a dotted key such as s3.endpoint or ingest.workers.

Values are stored as booleans or numbers when they parse as one, otherwise
as strings. Durations are written as strings ("30s"). Omit the value of a
secret key (s3.secret_key, mail.password) to be prompted without echo.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runConfigSet,
}

func init() {
	configCmd.AddCommand(configShowCmd, configGetCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}

func openConfig() (ConfigEditor, error) {
	if configOpener == nil {
		return nil, errors.New("config store not configured")
	}
	return configOpener()
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	store, err := openConfig()
	if err != nil {
		return err
	}

	cmd.Printf("File: %s\n", store.Path())
	keys := store.Keys()
	if len(keys) == 0 {
		cmd.Println("No settings; defaults apply.")
		return nil
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, k := range keys {
		v, _ := store.Get(k)
		fmt.Fprintf(tw, "%s\t%s\n", k, displayValue(k, v))
	}
	return tw.Flush()
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	store, err := openConfig()
	if err != nil {
		return err
	}
	v, ok := store.Get(args[0])
	if !ok {
		return fmt.Errorf("%s is not set", args[0])
	}
	cmd.Println(fmt.Sprint(v))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	store, err := openConfig()
	if err != nil {
		return err
	}
	key := args[0]

	var raw string
	switch {
	case len(args) == 2:
		raw = args[1]
	case isSecretKey(key):
		cmd.Printf("%s: ", key)
		raw = readSecret()
		cmd.Println()
	default:
		return fmt.Errorf("a value is required for %s", key)
	}

	if err := store.Set(key, parseValue(raw)); err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}
	cmd.Printf("Set %s\n", key)
	return nil
}

// parseValue keeps TOML types for values that look like them.
func parseValue(raw string) any {
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

func isSecretKey(key string) bool {
	return strings.HasSuffix(key, "secret_key") || strings.HasSuffix(key, "password")
}

func displayValue(key string, v any) string {
	s := fmt.Sprint(v)
	if !isSecretKey(key) {
		return s
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:2] + "..." + s[len(s)-2:]
}

//nolint:errcheck // CLI helper, error ignored for UX
func readSecret() string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		secret, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(secret)
		}
	}
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}
