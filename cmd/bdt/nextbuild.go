package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TrellixVulnTeam/bob.devtools-EQ2L/artifact"
	"github.com/TrellixVulnTeam/bob.devtools-EQ2L/builder"
)

var flagMatchesFile string

var nextBuildCmd = &cobra.Command{
	Use:   "next-build <channel-url> <name> <version> <python>",
	Short: "Print the next free build number for a package",
	Long: `Next-build lists the upload channel and prints the build number the
next build of the given (name, version, python) combination would receive.
The computation is a pure read and is safe to repeat.`,
	Args: cobra.ExactArgs(4),
	RunE: runNextBuild,
}

func init() {
	nextBuildCmd.Flags().StringVar(&flagMatchesFile, "matches-file", "",
		"also write the matching existing artifacts to this file")
	rootCmd.AddCommand(nextBuildCmd)
}

func runNextBuild(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	channelURL, name, version, python := args[0], args[1], args[2], args[3]

	st, err := newStore(ctx)
	if err != nil {
		return err
	}

	candidate := &artifact.Artifact{
		Name:    name,
		Version: version,
		PyTag:   builder.PyTag(python),
	}
	alloc := &artifact.Allocator{Store: st}
	number, matches, err := alloc.Next(ctx, channelURL, candidate.Basename())
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), number)

	if flagMatchesFile != "" {
		content := strings.Join(matches, "\n")
		if len(matches) > 0 {
			content += "\n"
		}
		if err := os.WriteFile(flagMatchesFile, []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}
