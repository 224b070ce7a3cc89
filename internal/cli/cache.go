package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/symptia/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the on-disk result cache",
	Long: `The disk cache holds results of reproducible analyses (constant network
or a fixed seed) under cache.dir.`,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached result",
	RunE: func(cmd *cobra.Command, args []string) error {
		disk, dir, err := diskCache(cmd)
		if err != nil {
			return err
		}
		if err := disk.Clear(); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Cleared cache: %s\n", dir)
		return nil
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove expired cached results",
	RunE: func(cmd *cobra.Command, args []string) error {
		disk, dir, err := diskCache(cmd)
		if err != nil {
			return err
		}
		removed, err := disk.Prune()
		if err != nil {
			return fmt.Errorf("prune cache: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed %d expired entries from %s\n", removed, dir)
		return nil
	},
}

func diskCache(cmd *cobra.Command) (*cache.DiskCache, string, error) {
	cfg, err := effectiveConfig(cmd, nil)
	if err != nil {
		return nil, "", err
	}
	if cfg.Cache.Dir == "" {
		return nil, "", fmt.Errorf("cache.dir is not set")
	}
	return cache.NewDiskCache(cfg.Cache.Dir, cfg.Cache.DiskTTL), cfg.Cache.Dir, nil
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cachePruneCmd)
}
