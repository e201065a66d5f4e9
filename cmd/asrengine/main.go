// Command asrengine is the CLI surface of spec.md §6: nightly,
// period-end, history maintenance, and post-build order adjustments.
// Grounded on the teacher's cmd/server/main.go startup sequence
// (load config, open DB, run migrations, connect NATS), adapted from
// its always-on HTTP server to cobra subcommands the way a batch
// engine is invoked, per spf13/cobra's standard root/subcommand tree.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/adaptive-retail/asr-engine/internal/config"
	"github.com/adaptive-retail/asr-engine/internal/history"
	"github.com/adaptive-retail/asr-engine/internal/logging"
	"github.com/adaptive-retail/asr-engine/internal/model"
	"github.com/adaptive-retail/asr-engine/internal/orchestrator"
	"github.com/adaptive-retail/asr-engine/internal/policy"
	"github.com/adaptive-retail/asr-engine/internal/queue"
	"github.com/adaptive-retail/asr-engine/internal/store"
	"github.com/adaptive-retail/asr-engine/internal/store/postgres"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "asrengine",
		Short: "Automated stock replenishment engine",
	}
	root.AddCommand(newNightlyCmd(), newPeriodEndCmd(), newHistoryCmd(), newOrderAdjustCmd())
	return root
}

// bootstrap loads configuration, connects to Postgres and NATS, and
// builds an Orchestrator, the way the teacher's main() sequences
// config -> db -> nats before wiring workers.
func bootstrap() (*orchestrator.Orchestrator, *postgres.Store, *queue.Manager, *zap.SugaredLogger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("build logger: %w", err)
	}

	db, err := postgres.Open(cfg.DatabaseURL, cfg.DatabaseMaxConnections, cfg.DatabaseMaxIdleConnections)
	if err != nil {
		return nil, nil, nil, log, fmt.Errorf("open database: %w", err)
	}

	if cfg.RunMigrations {
		if err := postgres.RunMigrations(db.DB(), log); err != nil {
			return nil, db, nil, log, fmt.Errorf("run migrations: %w", err)
		}
	}

	q, err := queue.NewManager(cfg.NATSURL, log)
	if err != nil {
		return nil, db, nil, log, fmt.Errorf("connect nats: %w", err)
	}

	orch := orchestrator.New(db, cfg, store.SystemClock{}, q, log)
	return orch, db, q, log, nil
}

func newNightlyCmd() *cobra.Command {
	var warehouseID string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "nightly",
		Short: "Run the full nightly pipeline (spec.md §4.10)",
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, db, q, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer db.Close()
			if q != nil {
				defer q.Close()
			}

			stats, err := orch.RunNightly(cmd.Context(), orchestrator.RunOptions{
				WarehouseID: warehouseID,
				Verbose:     verbose,
			})
			if err != nil {
				log.Errorw("nightly run failed", "error", err, "run_id", stats.RunID)
				return err
			}
			log.Infow("nightly run complete",
				"run_id", stats.RunID,
				"skus_processed", stats.SKUsProcessed,
				"sku_errors", stats.SKUErrors,
				"vendors_processed", stats.VendorsProcessed,
				"vendor_errors", stats.VendorErrors,
				"orders_built", stats.OrdersBuilt,
				"duration", stats.Duration,
			)
			return nil
		},
	}
	cmd.Flags().StringVar(&warehouseID, "warehouse", "", "restrict the run to one warehouse")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "emit per-SKU progress")
	return cmd
}

func newPeriodEndCmd() *cobra.Command {
	var warehouseID string
	var force bool

	cmd := &cobra.Command{
		Use:   "period-end",
		Short: "Run reforecast + exception detection (spec.md §4.10)",
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, db, q, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer db.Close()
			if q != nil {
				defer q.Close()
			}

			stats, err := orch.RunPeriodEnd(cmd.Context(), orchestrator.RunOptions{
				WarehouseID: warehouseID,
				Force:       force,
			})
			if err != nil {
				log.Errorw("period-end run failed", "error", err, "run_id", stats.RunID)
				return err
			}
			log.Infow("period-end run complete",
				"run_id", stats.RunID,
				"skus_processed", stats.SKUsProcessed,
				"exceptions_raised", stats.ExceptionsRaised,
				"duration", stats.Duration,
			)
			return nil
		},
	}
	cmd.Flags().StringVar(&warehouseID, "warehouse", "", "restrict the run to one warehouse")
	cmd.Flags().BoolVar(&force, "force", false, "run even when today is not period-end")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Demand history maintenance (spec.md §4.2, §6)",
	}
	cmd.AddCommand(newHistoryPurgeCmd(), newHistoryCopyCmd())
	return cmd
}

func newHistoryPurgeCmd() *cobra.Command {
	var skuID string
	var year, period int

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Purge history before (year, period) for one SKU",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, _, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer db.Close()

			svc := historyService(db)
			n, err := svc.Purge(cmd.Context(), skuID, year, period)
			if err != nil {
				return err
			}
			log.Infow("purged history", "sku_id", skuID, "records", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&skuID, "sku", "", "SKU id")
	cmd.Flags().IntVar(&year, "year", 0, "cutoff year (exclusive)")
	cmd.Flags().IntVar(&period, "period", 0, "cutoff period (exclusive)")
	_ = cmd.MarkFlagRequired("sku")
	return cmd
}

func newHistoryCopyCmd() *cobra.Command {
	var fromSKU, toSKU string
	var fromYear, fromPeriod, toYear, toPeriod int
	var scale float64

	cmd := &cobra.Command{
		Use:   "copy",
		Short: "Bulk-copy history from one SKU to another with a scale factor",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, _, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer db.Close()

			svc := historyService(db)
			n, err := svc.Copy(cmd.Context(), fromSKU, toSKU, fromYear, fromPeriod, toYear, toPeriod, scale)
			if err != nil {
				return err
			}
			log.Infow("copied history", "from", fromSKU, "to", toSKU, "records", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&fromSKU, "from", "", "source SKU id")
	cmd.Flags().StringVar(&toSKU, "to", "", "destination SKU id")
	cmd.Flags().IntVar(&fromYear, "from-year", 0, "")
	cmd.Flags().IntVar(&fromPeriod, "from-period", 0, "")
	cmd.Flags().IntVar(&toYear, "to-year", 0, "")
	cmd.Flags().IntVar(&toPeriod, "to-period", 0, "")
	cmd.Flags().Float64Var(&scale, "scale", 1.0, "multiplicative scale factor")
	return cmd
}

func historyService(db *postgres.Store) *history.Service {
	return history.New(db, store.SystemClock{})
}

func newOrderAdjustCmd() *cobra.Command {
	orderAdjust := &cobra.Command{
		Use:   "order-adjust",
		Short: "Post-build order manipulations (spec.md §4.7, §4.8, §6)",
	}
	orderAdjust.AddCommand(newOptimizeBracketCmd())
	return orderAdjust
}

func newOptimizeBracketCmd() *cobra.Command {
	var vendorID string
	var cycleDays int

	cmd := &cobra.Command{
		Use:   "optimize-bracket",
		Short: "Report the most profitable candidate order cycle for a vendor (spec.md §4.8)",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, _, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := cmd.Context()
			vendor, err := db.GetVendor(ctx, vendorID, "")
			if err != nil {
				return err
			}
			if vendor == nil {
				return fmt.Errorf("order-adjust: vendor %s not found", vendorID)
			}

			skus, err := db.QuerySKUs(ctx, store.SKUFilter{VendorID: vendorID})
			if err != nil {
				return err
			}
			brackets, err := db.GetBrackets(ctx, vendorID)
			if err != nil {
				return err
			}

			demands := make([]policy.SKUDemand, 0, len(skus))
			for _, sku := range skus {
				demands = append(demands, policy.SKUDemand{
					SKUID:          sku.SKUID,
					DailyDemand:    sku.DailyDemand(),
					PurchasePrice:  sku.PurchasePrice,
					BuyingMultiple: sku.BuyingMultiple,
					IgnoreMultiple: sku.IgnoreMultiple,
					Unit:           model.BracketUnitAmount,
				})
			}

			results := policy.SearchCycles(demands, brackets, model.BracketUnitAmount,
				vendor.HeaderCost, vendor.LineCost, 0.25, decimal.Zero)
			if len(results) == 0 {
				return fmt.Errorf("order-adjust: no candidate cycles evaluated")
			}

			best := results[0]
			log.Infow("most profitable cycle",
				"vendor_id", vendorID,
				"cycle_days", best.CycleDays,
				"profit_impact", best.ProfitImpact.String(),
				"order_amount", best.OrderAmount.String(),
			)
			if cycleDays > 0 {
				for _, r := range results {
					if r.CycleDays == cycleDays {
						log.Infow("requested cycle", "cycle_days", r.CycleDays, "profit_impact", r.ProfitImpact.String())
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&vendorID, "vendor", "", "vendor id")
	cmd.Flags().IntVar(&cycleDays, "cycle", 0, "also report this specific candidate cycle")
	_ = cmd.MarkFlagRequired("vendor")
	return cmd
}
