// Package executor runs external commands for the build pipeline: conda
// builds, sphinx invocations and the occasional helper tool. Output is
// streamed line by line as it is produced, since conda builds run for many
// minutes and CI logs are the only window into them.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"

	bdterrors "github.com/TrellixVulnTeam/bob.devtools-EQ2L/errors"
)

// Result holds the outcome of a command execution.
type Result struct {
	// Combined holds the interleaved stdout and stderr of the command.
	Combined string

	// ExitCode is the command's exit status, -1 when the command did not
	// run to completion.
	ExitCode int

	// Elapsed is the wall-clock duration of the execution.
	Elapsed time.Duration
}

// Runner abstracts command execution so builders can be tested without
// spawning processes.
type Runner interface {
	Run(ctx context.Context, program string, args []string, opts ...Option) (*Result, error)
}

// Options configures a single execution.
type Options struct {
	// WorkingDir is the directory the command runs in. Empty means the
	// current directory.
	WorkingDir string

	// Env holds extra environment variables appended to the inherited
	// environment.
	Env map[string]string

	// Timeout bounds the execution. Zero means no bound beyond the
	// caller's context.
	Timeout time.Duration

	// Echo receives the command's output as it is produced, each line
	// prefixed with its number. Nil disables streaming.
	Echo io.Writer

	// Log receives start and completion records. Defaults to
	// slog.Default.
	Log *slog.Logger
}

// Option mutates Options.
type Option func(*Options)

// WithWorkingDir sets the directory the command runs in.
func WithWorkingDir(dir string) Option {
	return func(o *Options) { o.WorkingDir = dir }
}

// WithEnv adds environment variables on top of the inherited environment.
func WithEnv(env map[string]string) Option {
	return func(o *Options) {
		if o.Env == nil {
			o.Env = make(map[string]string, len(env))
		}
		for k, v := range env {
			o.Env[k] = v
		}
	}
}

// WithEnvVar adds a single environment variable.
func WithEnvVar(key, value string) Option {
	return func(o *Options) {
		if o.Env == nil {
			o.Env = make(map[string]string, 1)
		}
		o.Env[key] = value
	}
}

// WithTimeout bounds the execution duration.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) { o.Timeout = d }
}

// WithEcho streams the command's numbered output lines to w.
func WithEcho(w io.Writer) Option {
	return func(o *Options) { o.Echo = w }
}

// WithLogger sets the logger receiving execution records.
func WithLogger(log *slog.Logger) Option {
	return func(o *Options) { o.Log = log }
}

// Shell runs commands on the local machine.
type Shell struct{}

// Run implements Runner. The command inherits the process environment plus
// any extras, and its exit status is folded into the returned error with
// code EXECUTION_FAILED.
func (Shell) Run(ctx context.Context, program string, args []string, opts ...Option) (*Result, error) {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	log := options.Log
	if log == nil {
		log = slog.Default()
	}

	if options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, program, args...)
	if options.WorkingDir != "" {
		cmd.Dir = options.WorkingDir
	}
	if len(options.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range options.Env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
	}

	var combined bytes.Buffer
	sink := io.Writer(&combined)
	var lines *lineWriter
	if options.Echo != nil {
		lines = newLineWriter(options.Echo)
		sink = io.MultiWriter(&combined, lines)
	}
	cmd.Stdout = sink
	cmd.Stderr = sink

	log.Info("running command", "program", program, "args", args, "dir", options.WorkingDir)
	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)
	if lines != nil {
		lines.Flush()
	}

	result := &Result{
		Combined: combined.String(),
		Elapsed:  elapsed,
		ExitCode: exitCode(err),
	}

	if err != nil {
		log.Error("command failed", "program", program,
			"exit", result.ExitCode, "elapsed", elapsed)
		return result, bdterrors.Wrapf(err, bdterrors.CodeExecutionFailed,
			"%s exited with status %d after %s", program, result.ExitCode,
			elapsed.Round(time.Millisecond))
	}

	log.Info("command finished", "program", program, "elapsed", elapsed)
	return result, nil
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// lineWriter splits a byte stream into lines and emits each with a running
// line number, the way long build logs read best in CI.
type lineWriter struct {
	dst     io.Writer
	partial bytes.Buffer
	n       int
}

func newLineWriter(dst io.Writer) *lineWriter {
	return &lineWriter{dst: dst}
}

// Write implements io.Writer. Partial lines are held until their newline
// arrives or Flush is called.
func (w *lineWriter) Write(p []byte) (int, error) {
	total := len(p)
	for {
		idx := bytes.IndexByte(p, '\n')
		if idx < 0 {
			w.partial.Write(p)
			return total, nil
		}
		w.partial.Write(p[:idx])
		w.emit()
		p = p[idx+1:]
	}
}

// Flush emits any trailing output that did not end in a newline.
func (w *lineWriter) Flush() {
	if w.partial.Len() > 0 {
		w.emit()
	}
}

func (w *lineWriter) emit() {
	w.n++
	fmt.Fprintf(w.dst, "%04d | %s\n", w.n, w.partial.String())
	w.partial.Reset()
}
