package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/vet-enrich/internal/cost"
	"github.com/sells-group/vet-enrich/internal/crawl"
	"github.com/sells-group/vet-enrich/internal/enrich"
	"github.com/sells-group/vet-enrich/internal/extract"
	"github.com/sells-group/vet-enrich/internal/gateway"
	"github.com/sells-group/vet-enrich/internal/store"
	anthropicpkg "github.com/sells-group/vet-enrich/pkg/anthropic"
	"github.com/sells-group/vet-enrich/pkg/notion"
)

var (
	enrichLimit   int
	enrichBudget  float64
	enrichNoCache bool
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Run batch enrichment over eligible practices",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate(); err != nil {
			return err
		}

		budget := cfg.Enrich.MaxBudgetUSD
		if enrichBudget > 0 {
			budget = enrichBudget
		}
		limit := cfg.Enrich.Limit
		if enrichLimit > 0 {
			limit = enrichLimit
		}

		ledger, err := cost.NewLedger(budget)
		if err != nil {
			return eris.Wrap(err, "init ledger")
		}

		notionClient := notion.NewClient(cfg.Notion.Token, notion.WithRateLimit(cfg.Notion.RateLimit))
		anthropicClient := anthropicpkg.NewClient(cfg.Anthropic.Key)

		estimator := cost.NewEstimator(cost.NewCalculator(cost.DefaultRates()), cfg.Anthropic.HaikuModel)
		extractor := extract.NewExtractor(anthropicClient, ledger, estimator, cfg.Anthropic.HaikuModel)

		crawler := crawl.New(crawl.Options{
			MaxPages:    cfg.Crawl.MaxPages,
			MaxDepth:    cfg.Crawl.MaxDepth,
			PageTimeout: cfg.Crawl.PageTimeout(),
		})

		gw := gateway.New(notionClient, cfg.Notion.PracticeDB, gateway.Options{
			StalenessDays: cfg.Enrich.StalenessDays,
		})

		opts := enrich.Options{
			Concurrency: cfg.Enrich.Concurrency,
			Limit:       limit,
			CacheTTL:    cfg.Crawl.CacheTTL(),
		}
		if !enrichNoCache {
			st, storeErr := store.NewSQLite(cfg.Store.Path)
			if storeErr != nil {
				return eris.Wrap(storeErr, "open crawl cache")
			}
			defer st.Close()
			if migrateErr := st.Migrate(ctx); migrateErr != nil {
				return eris.Wrap(migrateErr, "migrate crawl cache")
			}
			opts.Cache = st
		}

		orchestrator := enrich.New(crawler, extractor, gw, ledger, opts)

		run, err := orchestrator.Run(ctx)
		if err != nil {
			return eris.Wrap(err, "enrichment run")
		}

		sum := ledger.Snapshot()
		zap.L().Info("run finished",
			zap.String("state", string(run.State)),
			zap.Int("succeeded", run.Succeeded),
			zap.Int("failed", run.FailedAfterRetry),
			zap.Float64("cost", sum.Cumulative),
			zap.Float64("budget", sum.Budget),
			zap.Int("llm_calls", sum.CallCount),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	},
}

func init() {
	enrichCmd.Flags().IntVar(&enrichLimit, "limit", 0, "max practices to process (0 = all eligible)")
	enrichCmd.Flags().Float64Var(&enrichBudget, "budget", 0, "override LLM cost budget in USD")
	enrichCmd.Flags().BoolVar(&enrichNoCache, "no-cache", false, "bypass the local crawl cache")
	rootCmd.AddCommand(enrichCmd)
}
