package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cratetree/pkg/cache"
	"github.com/matzehuels/cratetree/pkg/session"
)

// defaultStateMaxAge is how long a saved viewer state survives "cache prune".
const defaultStateMaxAge = 30 * 24 * time.Hour

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the document and artifact cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())
	cmd.AddCommand(c.cachePruneCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all cached documents and rendered artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}

			if _, err := os.Stat(dir); os.IsNotExist(err) {
				printInfo("Cache is empty")
				return nil
			}

			fc, err := cache.NewFileCache(dir)
			if err != nil {
				return err
			}
			count, err := fc.Clear()
			if err != nil {
				return err
			}

			printSuccess("Cleared %d cached entries", count)
			printDetail("Directory: %s", dir)
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Println(dir)
			return nil
		},
	}
}

// cachePruneCommand creates the "cache prune" subcommand, which drops
// expired cache entries and saved viewer states that have not been touched
// for a while.
func (c *CLI) cachePruneCommand() *cobra.Command {
	var (
		dir    string
		maxAge time.Duration
	)

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove expired cache entries and stale viewer states",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := pruneCache(); err != nil {
				return err
			}

			store, err := session.NewFileStore(dir)
			if err != nil {
				return err
			}
			removed, err := store.Cleanup(time.Now().Add(-maxAge))
			if err != nil {
				return err
			}
			printSuccess("Removed %d saved states older than %s", removed, maxAge)
			printDetail("File: %s", store.Path())
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "state-dir", session.DefaultStateDir, "viewer state directory")
	cmd.Flags().DurationVar(&maxAge, "older-than", defaultStateMaxAge, "age after which a saved state is removed")

	return cmd
}

// pruneCache removes expired entries from the cache directory, if there is
// one.
func pruneCache() error {
	dir, err := cacheDir()
	if err != nil {
		return fmt.Errorf("get cache dir: %w", err)
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return err
	}
	removed, err := fc.Prune()
	if err != nil {
		return err
	}
	printSuccess("Removed %d expired cache entries", removed)
	return nil
}
