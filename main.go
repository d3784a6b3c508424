package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ureshvahalia/bridge-deals-ingest/compare"
	"github.com/ureshvahalia/bridge-deals-ingest/config"
	"github.com/ureshvahalia/bridge-deals-ingest/dedupe"
	"github.com/ureshvahalia/bridge-deals-ingest/logger"
	"github.com/ureshvahalia/bridge-deals-ingest/oracle"
	"github.com/ureshvahalia/bridge-deals-ingest/reconcile"
	"github.com/ureshvahalia/bridge-deals-ingest/store"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.Debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	var migrate, serve bool
	var outPath string
	var files []string
	for _, a := range os.Args[1:] {
		switch {
		case a == "--migrate":
			migrate = true
		case a == "--serve":
			serve = true
		case strings.HasPrefix(a, "--out="):
			outPath = strings.TrimPrefix(a, "--out=")
		case strings.HasPrefix(a, "--"):
			log.Fatal("unknown flag", zap.String("flag", a))
		default:
			files = append(files, a)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watchSignals(cancel, log)

	var db *store.DB
	if cfg.DatabaseURL != "" {
		db, err = store.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatal("db open", zap.Error(err))
		}
		defer db.Close(ctx)
	}

	if migrate {
		if db == nil {
			log.Fatal("--migrate needs DATABASE_URL")
		}
		if err := store.Migrate(ctx, db); err != nil {
			log.Fatal("migrate", zap.Error(err))
		}
		log.Info("schema migrated")
		if len(files) == 0 && !serve {
			return
		}
	}

	if len(files) > 0 {
		if err := runIngest(ctx, cfg, log, db, files, outPath); err != nil {
			log.Fatal("ingest", zap.Error(err))
		}
		if !serve {
			return
		}
	}

	if serve {
		if db == nil {
			log.Fatal("--serve needs DATABASE_URL")
		}
		srv := &http.Server{Addr: cfg.Port, Handler: Router(db, log)}
		go func() {
			<-ctx.Done()
			_ = srv.Shutdown(context.Background())
		}()
		log.Info("serving", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("serve", zap.Error(err))
		}
		return
	}

	if len(files) == 0 && !migrate {
		fmt.Fprintln(os.Stderr, "usage: bridge-deals-ingest [--migrate] [--serve] [--out=FILE] raw-records.json ...")
		os.Exit(2)
	}
}

// runIngest is one batch: load raw records, reconcile them across the
// worker pool, pair by deal, then persist and/or write the JSON report.
func runIngest(ctx context.Context, cfg *config.Config, log *zap.Logger, db *store.DB, files []string, outPath string) error {
	raws, err := loadRawRecords(files)
	if err != nil {
		return err
	}
	log.Info("loaded raw records", zap.Int("count", len(raws)), zap.Int("files", len(files)))

	opts := reconcile.BatchOptions{
		Workers: cfg.Workers,
		Dedupe:  dedupe.New(cfg.DedupeThreshold),
		Logger:  log,
	}
	if cfg.OracleURL != "" {
		opts.Oracle = oracle.NewCache(oracle.NewClient(cfg.OracleURL, cfg.OracleTimeout))
	}

	boards, err := reconcile.ReconcileBatch(ctx, raws, opts)
	if err != nil {
		return err
	}

	result, err := compare.Pair(boards, cfg.TableMapping())
	if err != nil {
		return err
	}
	logBatchSummary(log, boards, result)

	if db != nil {
		batchID := uuid.NewString()
		if err := db.SaveBatch(ctx, batchID, strings.Join(files, ","), boards, result); err != nil {
			return err
		}
		log.Info("batch stored", zap.String("batch", batchID))
	}

	if outPath != "" {
		return writeReport(outPath, boards, result)
	}
	return nil
}

// loadRawRecords reads each file as either a JSON array of raw records or a
// single record object.
func loadRawRecords(files []string) ([]*reconcile.RawBoard, error) {
	var raws []*reconcile.RawBoard
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var many []*reconcile.RawBoard
		if err := json.Unmarshal(data, &many); err == nil {
			for _, r := range many {
				if r.Source == "" {
					r.Source = path
				}
			}
			raws = append(raws, many...)
			continue
		}
		var one reconcile.RawBoard
		if err := json.Unmarshal(data, &one); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if one.Source == "" {
			one.Source = path
		}
		raws = append(raws, &one)
	}
	return raws, nil
}

func logBatchSummary(log *zap.Logger, boards []*reconcile.CanonicalBoard, result *compare.Result) {
	counts := map[reconcile.Status]int{}
	for _, b := range boards {
		counts[b.Summary]++
	}
	log.Info("batch reconciled",
		zap.Int("boards", len(boards)),
		zap.Int("match", counts[reconcile.Match]),
		zap.Int("mismatch", counts[reconcile.Mismatch]),
		zap.Int("missing", counts[reconcile.Missing]),
		zap.Int("comparisons", len(result.Comparisons)),
		zap.Int("unmatched", len(result.Unmatched)),
		zap.Int("collisions", len(result.Collisions)))
	for _, c := range result.Collisions {
		log.Warn("deal collision", zap.String("deal", string(c.Key)), zap.Strings("boards", c.Boards))
	}
}

type report struct {
	Boards      []*reconcile.CanonicalBoard `json:"boards"`
	Comparisons []*compare.Comparison       `json:"comparisons"`
	Unmatched   []string                    `json:"unmatched,omitempty"`
	Collisions  []*compare.DealCollision    `json:"collisions,omitempty"`
}

func writeReport(path string, boards []*reconcile.CanonicalBoard, result *compare.Result) error {
	rep := report{Boards: boards, Comparisons: result.Comparisons, Collisions: result.Collisions}
	for _, b := range result.Unmatched {
		rep.Unmatched = append(rep.Unmatched, b.ID)
	}
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func watchSignals(cancel context.CancelFunc, log *zap.Logger) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	s := <-ch
	log.Info("shutting down", zap.String("signal", s.String()))
	cancel()
}
