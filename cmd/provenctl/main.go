// Command provenctl drives the profile sync core from a terminal: it fetches
// the profile, edits collections and deletes items against the profile API.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/khoahotran/provenpro/internal/bootstrap"
	"github.com/khoahotran/provenpro/internal/config"
	"github.com/khoahotran/provenpro/pkg/logger"
)

type globalFlags struct {
	configDir string
	apiURL    string
	token     string
	ordering  string
	verbose   bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "provenctl",
		Short:         "Inspect and edit a ProvenPro profile",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&flags.configDir, "config", ".", "directory holding config.yaml and .env")
	root.PersistentFlags().StringVar(&flags.apiURL, "api-url", "", "profile API base URL (overrides PROFILE_API_URL)")
	root.PersistentFlags().StringVar(&flags.token, "token", os.Getenv("PROVENPRO_TOKEN"), "bearer token for the profile API")
	root.PersistentFlags().StringVar(&flags.ordering, "ordering", "", "sync ordering: request or response")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log to stderr")

	root.AddCommand(newProfileCmd(flags), newItemsCmd(flags))
	return root
}

// openCore loads configuration and builds the core for one command run.
func openCore(ctx context.Context, flags *globalFlags, withHistory bool) (*bootstrap.Core, error) {
	cfg, err := config.LoadConfig(flags.configDir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if flags.apiURL != "" {
		cfg.API.BaseURL = flags.apiURL
	}
	if flags.ordering != "" {
		cfg.Sync.Ordering = flags.ordering
	}

	log := logger.NewNop()
	if flags.verbose {
		log = logger.NewZapLogger("development")
	}
	return bootstrap.New(ctx, cfg, log, bootstrap.Options{
		Token:       flags.token,
		SkipHistory: !withHistory,
		// the process exits before an async publish could complete
		SkipEvents: true,
	})
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
