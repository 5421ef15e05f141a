package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/quatton/libra/pkg/kv"
	"github.com/quatton/libra/pkg/llog"
	"github.com/quatton/libra/pkg/lsdk"
	"github.com/spf13/cobra"
)

type contextKey string

const (
	configContextKey contextKey = "libraconfig"
	clientContextKey contextKey = "libraclient"
)

// flag name -> config key
var boundFlags = map[string]string{
	"base-url": lsdk.BaseUrlKey,
	"output":   lsdk.OutputKey,
	"store":    lsdk.StoreKey,
}

// newRootCmd builds the command tree. Stores opened while running are
// appended to *opened so the caller can close them even when a command fails.
func newRootCmd(opened *[]kv.Store) *cobra.Command {
	var (
		cfgFile string
		verbose bool
	)

	root := &cobra.Command{
		Use:   "libractl",
		Short: "CLI for the libra library API (auth, catalog, users, loans)",
		Long: `libractl talks to a running libra API server. Log in once with
'libractl auth login'; the session is kept in the configured store (the OS
keyring by default) and silently refreshed when the access token expires.

Catalog tables (authors, books, copies, genres, languages, statuses) share
list/get/create/update/delete subcommands. Create and update read a JSON or
YAML document from --file or --data.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := lsdk.LoadConfig(cfgFile)
			if err != nil {
				return err
			}
			for name, key := range boundFlags {
				if err := cfg.Viper().BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
					return err
				}
			}
			if err := cfg.Reload(); err != nil {
				return err
			}

			logger := llog.NewDefault()
			if verbose {
				logger = llog.NewVerbose()
			}

			store, err := kv.Open(cmd.Context(), cfg.StoreOptions())
			if err != nil {
				return fmt.Errorf("opening session store: %w", err)
			}
			*opened = append(*opened, store)

			errOut := cmd.ErrOrStderr()
			client, err := lsdk.New(cmd.Context(), cfg, store,
				lsdk.WithLogger(logger),
				lsdk.WithUserAgent("libractl"),
				lsdk.WithSessionExpiredHandler(func(_ context.Context, reason string) {
					fmt.Fprintf(errOut, "session expired (%s): run 'libractl auth login'\n", reason)
				}),
			)
			if err != nil {
				return err
			}

			ctx := context.WithValue(cmd.Context(), configContextKey, cfg)
			ctx = context.WithValue(ctx, clientContextKey, client)
			cmd.SetContext(ctx)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML). Searches: libra.yaml, .libra/config.yaml")
	root.PersistentFlags().String("base-url", "", "Base URL of the libra API (overrides config)")
	root.PersistentFlags().StringP("output", "o", "", "Output format: table, json or yaml")
	root.PersistentFlags().String("store", "", "Session store: keyring, badger, redis or memory")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log requests and session changes")

	root.AddCommand(
		newAuthCmd(),
		newMeCmd(),
		newUsersCmd(),
		newBorrowedCmd(),
	)
	root.AddCommand(newCatalogCmds()...)
	return root
}

// GetConfig retrieves the Config from the command context
func GetConfig(cmd *cobra.Command) (*lsdk.Config, error) {
	cfg, ok := cmd.Context().Value(configContextKey).(*lsdk.Config)
	if !ok {
		return nil, errors.New("no config in context")
	}
	return cfg, nil
}

// GetClient retrieves the SDK client from the command context
func GetClient(cmd *cobra.Command) (*lsdk.Client, error) {
	c, ok := cmd.Context().Value(clientContextKey).(*lsdk.Client)
	if !ok {
		return nil, errors.New("no client in context")
	}
	return c, nil
}

// run executes one invocation and closes every store it opened.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var opened []kv.Store
	defer func() {
		for _, s := range opened {
			_ = s.Close()
		}
	}()

	root := newRootCmd(&opened)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

func Execute() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		exitIfSdkError(err)
	}
}
