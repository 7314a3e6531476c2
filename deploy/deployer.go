package deploy

import (
	"context"
	goerrors "errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/TrellixVulnTeam/bob.devtools-EQ2L/artifact"
	"github.com/TrellixVulnTeam/bob.devtools-EQ2L/errors"
	"github.com/TrellixVulnTeam/bob.devtools-EQ2L/store"
)

// Deployer publishes built packages and documentation trees through a Store.
type Deployer struct {
	// Store is the destination artifact store.
	Store store.Store

	// Log receives per-file progress. Defaults to slog.Default.
	Log *slog.Logger
}

func (d *Deployer) logger() *slog.Logger {
	if d.Log == nil {
		return slog.Default()
	}
	return d.Log
}

// DeployArtifacts publishes the given locally built conda packages to the
// upload channel, each under its architecture subdirectory. Existing remote
// objects are never replaced: a clash aborts the deploy with a hint that two
// concurrent builds likely raced for the same build number.
func (d *Deployer) DeployArtifacts(ctx context.Context, uploadChannelURL string, paths []string) error {
	for _, local := range paths {
		a, err := artifact.ParsePath(filepath.ToSlash(local))
		if err != nil {
			return err
		}
		target, err := PackageTarget(uploadChannelURL, a)
		if err != nil {
			return err
		}

		d.logger().Info("deploying package", "local", local, "remote", target.Remote)
		if err := d.Store.Upload(ctx, local, target.Remote, target.Overwrite); err != nil {
			if goerrors.Is(err, store.ErrAlreadyExists) {
				return errors.Wrapf(err, errors.CodePublishFailed,
					"%s already exists on the server, which can happen when "+
						"concurrent builds race for the same build number; "+
						"re-running the broken build normally fixes it", target.Remote)
			}
			return err
		}
	}
	return nil
}

// DeployDocs publishes the documentation tree rooted at localDocs once per
// target segment, overwriting whatever each segment currently holds.
// Documentation, unlike packages, is replaceable: "stable" and "master"
// move forward with every matching release.
func (d *Deployer) DeployDocs(ctx context.Context, localDocs, docBaseURL string, targets []string) error {
	base := strings.TrimSuffix(docBaseURL, "/")

	for _, target := range targets {
		d.logger().Info("deploying documentation", "root", localDocs, "target", target)

		err := filepath.WalkDir(localDocs, func(p string, entry fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if entry.IsDir() {
				return nil
			}
			rel, relErr := filepath.Rel(localDocs, p)
			if relErr != nil {
				return relErr
			}
			remote := base + "/" + target + "/" + filepath.ToSlash(rel)
			return d.Store.Upload(ctx, p, remote, true)
		})
		if err != nil {
			return errors.Wrapf(err, errors.CodePublishFailed,
				"deploying documentation to %s/%s", base, target)
		}
	}
	return nil
}
