// ABOUTME: Root command for trainer-admin CLI
// ABOUTME: Handles global flags, configuration and output formatting

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/markalston/trainer-admin/internal/logger"
)

var (
	apiURL       string
	jsonOutput   bool
	outputFormat string
	stateDir     string
	storeKind    string
)

// Exit codes
const (
	exitOK       = 0
	exitRejected = 1
	exitError    = 2
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "trainer-admin",
	Short: "Admin client for the training platform",
	Long: `trainer-admin is the administrator client for the training platform.

It signs administrators in, manages trainer and trainee accounts, and
shows user statistics, either as scriptable commands or as a dashboard.

Exit codes:
  0 - Success
  1 - Rejected (access denied, not logged in, refused by the backend)
  2 - Error (connectivity, invalid input, local storage)

Environment Variables:
  TRAINER_ADMIN_API_URL    Backend API URL (default: http://127.0.0.1:8000/api)
  TRAINER_ADMIN_TIMEOUT    Request timeout in seconds (default: 30)
  TRAINER_ADMIN_STORE      Session store: file, sqlite, badger, memory (default: file)
  TRAINER_ADMIN_STATE_DIR  Session and log directory (default: ~/.config/trainer-admin)
  LOG_LEVEL                debug, info, warn, error (default: info)
  LOG_FORMAT               text, json (default: text)`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init(os.Stderr)
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Backend API URL (overrides TRAINER_ADMIN_API_URL)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "Output format: text, json, yaml")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Shorthand for --output json")
	rootCmd.PersistentFlags().StringVar(&stateDir, "state-dir", "", "Session directory (overrides TRAINER_ADMIN_STATE_DIR)")
	rootCmd.PersistentFlags().StringVar(&storeKind, "store", "", "Session store (overrides TRAINER_ADMIN_STORE)")
}

// getOutputFormat returns the validated output format
func getOutputFormat() (string, error) {
	if jsonOutput {
		return "json", nil
	}
	switch f := strings.ToLower(outputFormat); f {
	case "", "text":
		return "text", nil
	case "json", "yaml":
		return f, nil
	default:
		return "", fmt.Errorf("invalid output format %q: must be text, json or yaml", outputFormat)
	}
}

// writeOutput renders v in the requested format, using human for text
func writeOutput(w io.Writer, v any, human func() string) error {
	format, err := getOutputFormat()
	if err != nil {
		return err
	}
	switch format {
	case "json":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		fmt.Fprintln(w, human())
	}
	return nil
}
