package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/vet-enrich/internal/store"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Crawl cache maintenance",
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete expired crawl cache entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := store.NewSQLite(cfg.Store.Path)
		if err != nil {
			return eris.Wrap(err, "open crawl cache")
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate crawl cache")
		}

		n, err := st.DeleteExpiredCrawls(ctx)
		if err != nil {
			return eris.Wrap(err, "prune crawl cache")
		}

		zap.L().Info("cache pruned", zap.Int("deleted", n))
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cachePruneCmd)
	rootCmd.AddCommand(cacheCmd)
}
