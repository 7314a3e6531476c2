// bdt is the CI driver for building, testing and publishing conda packages
// and their documentation.
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/TrellixVulnTeam/bob.devtools-EQ2L/config"
	"github.com/TrellixVulnTeam/bob.devtools-EQ2L/errors"
	"github.com/TrellixVulnTeam/bob.devtools-EQ2L/store"
)

var (
	flagVerbose  bool
	flagDryRun   bool
	flagIntranet bool
)

var rootCmd = &cobra.Command{
	Use:   "bdt",
	Short: "Conda package build and deployment automation",
	Long: `bdt drives the CI lifecycle of our conda packages: channel
resolution, stability classification, build number allocation, builds and
the deployment of packages and documentation.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	pf.BoolVarP(&flagDryRun, "dry-run", "d", false,
		"compute every decision but suppress uploads and builds")
	pf.BoolVar(&flagIntranet, "intranet", false,
		"running inside the lab network (enables private channels)")
	pf.String("bucket", "", "S3 bucket backing the conda channels")
	pf.String("s3-endpoint", "", "custom S3 endpoint")
	_ = viper.BindPFlag("bucket", pf.Lookup("bucket"))
	_ = viper.BindPFlag("s3-endpoint", pf.Lookup("s3-endpoint"))
	viper.SetEnvPrefix("BDT")
	viper.AutomaticEnv()
}

func setupLogging() {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr,
		&slog.HandlerOptions{Level: level})))
	if flagDryRun {
		slog.Warn("dry-run mode: no uploads, deletions or builds will happen")
	}
}

// loadRuntime loads and validates the CI environment.
func loadRuntime() (*config.Runtime, error) {
	r, err := config.Load(nil)
	if err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// newStore builds the artifact store, wrapped for dry runs.
func newStore(ctx context.Context) (store.Store, error) {
	bucket := viper.GetString("bucket")
	if bucket == "" {
		return nil, errors.New(errors.CodeInvalidConfig,
			"no artifact store configured: set --bucket or BDT_BUCKET")
	}

	var opts []store.S3Option
	if endpoint := viper.GetString("s3-endpoint"); endpoint != "" {
		opts = append(opts, store.WithEndpoint(endpoint))
	}
	s3, err := store.NewS3Store(ctx, bucket, opts...)
	if err != nil {
		return nil, err
	}
	if flagDryRun {
		return &store.DryRun{Wrapped: s3}, nil
	}
	return s3, nil
}

// condaBldDir is where conda-build leaves artifacts for the run.
func condaBldDir(r *config.Runtime) string {
	return filepath.Join(r.CondaRoot, "conda-bld")
}
