package main

import (
	"context"
	"fmt"
	"os"

	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/spf13/cobra"

	"github.com/TrellixVulnTeam/bob.devtools-EQ2L/artifact"
	"github.com/TrellixVulnTeam/bob.devtools-EQ2L/builder"
	"github.com/TrellixVulnTeam/bob.devtools-EQ2L/config"
	"github.com/TrellixVulnTeam/bob.devtools-EQ2L/deploy"
	"github.com/TrellixVulnTeam/bob.devtools-EQ2L/executor"
	"github.com/TrellixVulnTeam/bob.devtools-EQ2L/pipeline"
	"github.com/TrellixVulnTeam/bob.devtools-EQ2L/release"
)

var (
	flagProjectServer string
	flagBaseBuild     bool
)

var nightliesCmd = &cobra.Command{
	Use:   "nightlies <order-file>",
	Short: "Build an ordered list of packages",
	Long: `Nightlies clones, builds and conditionally deploys every package
named in the order file, strictly in order. The first unrecovered error
aborts the whole run; packages without a conda recipe are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runNightlies,
}

func init() {
	nightliesCmd.Flags().StringVar(&flagProjectServer, "server",
		"https://gitlab.idiap.ch", "base URL projects are cloned from")
	nightliesCmd.Flags().BoolVar(&flagBaseBuild, "base", false,
		"base-dependency mode: build everything, deploy nothing")
	rootCmd.AddCommand(nightliesCmd)
}

func runNightlies(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	r, err := loadRuntime()
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()
	entries, err := pipeline.ParseOrderFile(f)
	if err != nil {
		return err
	}

	st, err := newStore(ctx)
	if err != nil {
		return err
	}

	// Run-level stability: the nightly run is stable only when the driving
	// project itself is building a clean release tag.
	stable := r.Tag != "" && !release.IsPrereleaseTag(r.Tag)

	orchestrator := &pipeline.Orchestrator{
		VCS:     nightliesVCS(r),
		Builder: nightliesBuilder(cmd, r, st),
		Deployer: &deploy.Deployer{
			Store: st,
		},
		Prober: &pipeline.HTTPProber{},
		Options: pipeline.Options{
			WorkRoot:      condaBldDir(r) + "-src",
			ProjectServer: flagProjectServer,
			Intranet:      flagIntranet,
			Stable:        stable,
			PythonVersion: r.PythonVersion,
			BaseBuild:     flagBaseBuild,
			DryRun:        flagDryRun,
		},
	}

	outcomes, runErr := orchestrator.Run(ctx, entries)
	for _, o := range outcomes {
		fmt.Fprintf(cmd.OutOrStdout(), "%-40s %s\n", o.Package, o.Status)
	}
	return runErr
}

func nightliesVCS(r *config.Runtime) pipeline.VCS {
	vcs := &pipeline.GitVCS{Depth: 1}
	if r.JobToken != "" {
		vcs.Auth = &githttp.BasicAuth{Username: "gitlab-ci-token", Password: r.JobToken}
	}
	return vcs
}

func nightliesBuilder(cmd *cobra.Command, r *config.Runtime, st artifact.Lister) builder.Builder {
	return &builder.CondaBuilder{
		Runner:    executor.Shell{},
		Allocator: &artifact.Allocator{Store: st},
		OutputDir: condaBldDir(r),
		Echo:      cmd.OutOrStdout(),
	}
}
