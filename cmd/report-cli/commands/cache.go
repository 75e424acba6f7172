package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/clearviewfp/report-engine/cmd/report-cli/ui"
	"github.com/clearviewfp/report-engine/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the extraction result cache",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove all cached statement extraction results",
	Long: `Purge deletes every cached statement worker result so the next
extraction run re-invokes the workers. Only the Redis driver persists
between runs; the in-process cache holds nothing to purge.`,
	RunE: runCachePurge,
}

func init() {
	cacheCmd.AddCommand(cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCachePurge(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ui.InitUI(noColor, verbose)

	if cfg.Cache.Driver != "redis" {
		ui.Warning("Cache driver is %q; the in-process cache holds nothing to purge", cfg.Cache.Driver)
		return nil
	}

	client, err := cache.NewRedisClient(cache.RedisConfig{
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		PoolSize: cfg.Cache.Redis.PoolSize,
		Prefix:   cfg.Cache.KeyPrefix,
	})
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer client.Close()

	if err := client.DeleteByPrefix(ctx, cache.StatementKeyPrefix); err != nil {
		return fmt.Errorf("purge statement cache: %w", err)
	}

	ui.Success("Statement cache purged")
	return nil
}
