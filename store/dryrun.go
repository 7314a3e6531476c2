package store

import (
	"context"
	"log/slog"
)

// DryRun wraps a Store, forwarding reads and suppressing every mutation
// while logging the action that would occur. Decision computations upstream
// therefore run identically in dry and real runs.
type DryRun struct {
	// Wrapped serves List and Exists. May be nil, in which case reads
	// return empty results.
	Wrapped Store

	// Log receives the would-happen messages. Defaults to slog.Default.
	Log *slog.Logger
}

func (d *DryRun) logger() *slog.Logger {
	if d.Log == nil {
		return slog.Default()
	}
	return d.Log
}

// List implements Store, forwarding to the wrapped store.
func (d *DryRun) List(ctx context.Context, channelURL, prefix string) ([]string, error) {
	if d.Wrapped == nil {
		return nil, nil
	}
	return d.Wrapped.List(ctx, channelURL, prefix)
}

// Upload implements Store. The transfer is logged, never performed.
func (d *DryRun) Upload(ctx context.Context, localPath, remotePath string, overwrite bool) error {
	d.logger().Info("dry-run: would upload",
		"local", localPath, "remote", remotePath, "overwrite", overwrite)
	return nil
}

// Exists implements Store, forwarding to the wrapped store.
func (d *DryRun) Exists(ctx context.Context, remotePath string) (bool, error) {
	if d.Wrapped == nil {
		return false, nil
	}
	return d.Wrapped.Exists(ctx, remotePath)
}

// Delete implements Store. The deletion is logged, never performed.
func (d *DryRun) Delete(ctx context.Context, remotePath string) error {
	d.logger().Info("dry-run: would delete", "remote", remotePath)
	return nil
}
