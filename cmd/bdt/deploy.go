package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/TrellixVulnTeam/bob.devtools-EQ2L/artifact"
	"github.com/TrellixVulnTeam/bob.devtools-EQ2L/channel"
	"github.com/TrellixVulnTeam/bob.devtools-EQ2L/config"
	"github.com/TrellixVulnTeam/bob.devtools-EQ2L/deploy"
	"github.com/TrellixVulnTeam/bob.devtools-EQ2L/errors"
)

var (
	flagLatest     bool
	flagDeployBase bool
	flagSkipDocs   bool
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Publish built packages and documentation",
	Long: `Deploy publishes the artifacts the current build produced to their
resolved upload channel, then the generated documentation to every
applicable path segment. Existing packages are never overwritten.`,
	RunE: runDeploy,
}

func init() {
	deployCmd.Flags().BoolVar(&flagLatest, "latest", true,
		"this stable release is the latest one (publishes the stable/master aliases)")
	deployCmd.Flags().BoolVar(&flagDeployBase, "base", false,
		"base-dependency mode: deploy collected third-party artifacts, not our own")
	deployCmd.Flags().BoolVar(&flagSkipDocs, "skip-docs", false,
		"do not deploy documentation")
	rootCmd.AddCommand(deployCmd)
}

func runDeploy(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	r, err := loadRuntime()
	if err != nil {
		return err
	}

	stable, err := classifyStability(ctx, r)
	if err != nil {
		return err
	}

	channels, err := channel.Resolve(channel.Params{
		Public:   r.Public(),
		Stable:   stable,
		Intranet: flagIntranet,
		Group:    r.Group(),
	})
	if err != nil {
		return err
	}
	if err := deploy.CheckVisibility(r.Public(), channels.Upload.URL); err != nil {
		return err
	}

	st, err := newStore(ctx)
	if err != nil {
		return err
	}
	deployer := &deploy.Deployer{Store: st}

	paths, err := collectLocalArtifacts(condaBldDir(r), r.Name(), flagDeployBase)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no artifacts to deploy")
	} else if err := deployer.DeployArtifacts(ctx, channels.Upload.URL, paths); err != nil {
		return err
	}

	if flagSkipDocs || flagDeployBase {
		return nil
	}
	return deployDocs(ctx, deployer, r, stable)
}

// collectLocalArtifacts gathers the conda packages the build left under the
// conda-bld directory. Normal deploys publish the project's own packages;
// base deploys publish everything but those.
func collectLocalArtifacts(bldDir, name string, base bool) ([]string, error) {
	var all []string
	for _, arch := range artifact.Architectures {
		for _, pattern := range []string{"*.tar.bz2", "*.conda"} {
			found, err := filepath.Glob(filepath.Join(bldDir, arch, pattern))
			if err != nil {
				return nil, errors.Wrap(err, errors.CodeInvalidConfig,
					"scanning "+bldDir)
			}
			all = append(all, found...)
		}
	}

	if base {
		return deploy.FilterBaseArtifacts(name, all), nil
	}

	var own []string
	for _, p := range all {
		a, err := artifact.ParsePath(filepath.ToSlash(p))
		if err != nil {
			continue
		}
		if a.Name == name {
			own = append(own, p)
		}
	}
	return own, nil
}

func deployDocs(ctx context.Context, deployer *deploy.Deployer, r *config.Runtime, stable bool) error {
	docs := filepath.Join(r.ProjectDir, "sphinx")
	if _, err := os.Stat(docs); err != nil {
		return errors.Newf(errors.CodeNotFound,
			"documentation deploy requires the generated documentation at %s", docs)
	}

	targets := deploy.DocTargets(stable, flagLatest, r.RefName, r.Tag)
	return deployer.DeployDocs(ctx, docs, docBaseURL(r), targets)
}

// docBaseURL mirrors the documentation read locations: the public software
// tree for public projects, the private tree otherwise.
func docBaseURL(r *config.Runtime) string {
	server := channel.DefaultServer
	if flagIntranet {
		server = channel.IntranetServer
	}
	if r.Public() {
		return server + "/software/" + r.Group() + "/docs/" + r.Name()
	}
	return server + "/private/docs/" + r.Group() + "/" + r.Name()
}
