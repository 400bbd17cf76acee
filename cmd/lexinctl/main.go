// Command lexinctl inspects catalogs and manages stored learner progress.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/m760622/snabbaLexinTSR/internal/bootstrap"
	"github.com/m760622/snabbaLexinTSR/internal/config"
	"github.com/m760622/snabbaLexinTSR/internal/domain/entities"
	"github.com/m760622/snabbaLexinTSR/internal/logger"
	"github.com/m760622/snabbaLexinTSR/internal/repository"
	"github.com/m760622/snabbaLexinTSR/internal/service"
	"github.com/m760622/snabbaLexinTSR/internal/storage"
)

var ErrUnsupportedOperation = errors.New("operation not supported by this storage driver")

// app holds what the progress commands share.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	kv     storage.KV
	close  func()
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Fatal(err)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "lexinctl",
		Short:         "Manage the study catalog and learner progress",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newCatalogCmd(), newProgressCmd())
	return root
}

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Catalog commands",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "validate <path>",
		Short: "Load a JSON, CSV or XLSX catalog and report its contents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := repository.LoadCatalogFile(args[0])
			if err != nil {
				return err
			}
			return writeCatalogReport(cmd.OutOrStdout(), catalog)
		},
	})

	return cmd
}

func writeCatalogReport(w io.Writer, catalog *repository.Catalog) error {
	counts := catalog.CategoryCounts()
	categories := make([]entities.Category, 0, len(counts))
	for c := range counts {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })

	var withExample int
	for _, item := range catalog.All() {
		if item.Example != "" {
			withExample++
		}
	}

	fmt.Fprintf(w, "items: %d\n", catalog.Len())
	fmt.Fprintf(w, "with example sentence: %d\n", withExample)
	for _, c := range categories {
		name := string(c)
		if name == "" {
			name = "(none)"
		}
		fmt.Fprintf(w, "category %s: %d\n", name, counts[c])
	}
	return nil
}

func newProgressCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Inspect and manage stored learner progress",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd.Context())
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.shutdown()
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List learners with stored progress",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.list(cmd.Context(), cmd.OutOrStdout())
			},
		},
		newExportCmd(a),
		&cobra.Command{
			Use:   "import <file>",
			Short: "Write snapshots from an export file",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				data, err := os.ReadFile(args[0])
				if err != nil {
					return err
				}
				n, err := a.importDump(cmd.Context(), data)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d snapshots\n", n)
				return nil
			},
		},
		&cobra.Command{
			Use:   "stats <learner> <catalog>",
			Short: "Summarize the progress of a learner against a catalog",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.stats(cmd.Context(), cmd.OutOrStdout(), args[0], args[1])
			},
		},
		&cobra.Command{
			Use:   "reset <learner>",
			Short: "Delete the stored progress of a learner",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.reset(cmd.Context(), args[0])
			},
		},
	)

	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export [learner...]",
		Short: "Dump snapshots as JSON, all learners when none are given",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return a.export(cmd.Context(), w, args)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func (a *app) open(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	lg, err := logger.New(cfg)
	if err != nil {
		return err
	}

	kv, closeKV, err := bootstrap.OpenKV(ctx, cfg, lg)
	if err != nil {
		return err
	}

	a.cfg, a.logger, a.kv, a.close = cfg, lg, kv, closeKV
	return nil
}

func (a *app) shutdown() {
	if a.close != nil {
		a.close()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

func (a *app) learners(ctx context.Context) ([]string, error) {
	lister, ok := a.kv.(storage.Lister)
	if !ok {
		return nil, ErrUnsupportedOperation
	}

	keys, err := lister.Keys(ctx, service.ProgressKey(""))
	if err != nil {
		return nil, err
	}

	learners := make([]string, 0, len(keys))
	for _, k := range keys {
		learners = append(learners, strings.TrimPrefix(k, service.ProgressKey("")))
	}
	return learners, nil
}

func (a *app) list(ctx context.Context, w io.Writer) error {
	learners, err := a.learners(ctx)
	if err != nil {
		return err
	}
	for _, l := range learners {
		fmt.Fprintln(w, l)
	}
	return nil
}

// export writes {"<key>": <snapshot>, ...}.
func (a *app) export(ctx context.Context, w io.Writer, learners []string) error {
	if len(learners) == 0 {
		var err error
		if learners, err = a.learners(ctx); err != nil {
			return err
		}
	}

	dump := make(map[string]json.RawMessage, len(learners))
	for _, l := range learners {
		key := service.ProgressKey(l)
		data, err := a.kv.Get(ctx, key)
		if errors.Is(err, storage.ErrNotFound) {
			a.logger.Warn("no stored progress", zap.String("learner", l))
			continue
		}
		if err != nil {
			return err
		}
		dump[key] = data
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(dump)
}

// importDump checks every snapshot of an export and writes them together.
func (a *app) importDump(ctx context.Context, data []byte) (int, error) {
	var dump map[string]json.RawMessage
	if err := json.Unmarshal(data, &dump); err != nil {
		return 0, fmt.Errorf("read export: %w", err)
	}

	values := make(map[string][]byte, len(dump))
	for key, raw := range dump {
		records, meta, err := repository.DecodeSnapshot(raw)
		if err != nil {
			return 0, fmt.Errorf("snapshot %q: %w", key, err)
		}

		// Rewrite in the current layout.
		encoded, err := repository.EncodeSnapshot(records, meta)
		if err != nil {
			return 0, err
		}
		values[key] = encoded
	}

	if err := storage.SetMany(ctx, a.kv, values); err != nil {
		return 0, err
	}
	return len(values), nil
}

func (a *app) stats(ctx context.Context, w io.Writer, learner, catalogPath string) error {
	catalog, err := repository.LoadCatalogFile(catalogPath)
	if err != nil {
		return err
	}

	store := repository.NewProgressStore(a.kv, service.ProgressKey(learner))
	meta, err := store.Load(ctx)
	if err != nil {
		return err
	}

	s := service.BuildSummary(catalog.All(), store.Snapshot())
	fmt.Fprintf(w, "memorized: %d / %d (%.1f%%)\n", s.Memorized, s.Total, s.Percent())
	fmt.Fprintf(w, "in progress: %d\n", s.InProgress)
	fmt.Fprintf(w, "not started: %d\n", s.NotStarted)
	fmt.Fprintf(w, "favorites: %d\n", s.Favorites)
	fmt.Fprintf(w, "accuracy: %.1f%%\n", s.Accuracy())
	fmt.Fprintf(w, "score: %d (%d questions)\n", meta.LifetimeScore, meta.LifetimeAnswered)
	fmt.Fprintf(w, "streak: %d days (last %s)\n", meta.Streak.Days, meta.Streak.LastVisit)

	for _, m := range service.TopMistakes(catalog.All(), store.Snapshot(), 5) {
		fmt.Fprintf(w, "mistake: %s (%s) wrong %d\n", m.Item.PrimaryText, m.Item.Translation, m.Record.TimesWrong)
	}
	return nil
}

func (a *app) reset(ctx context.Context, learner string) error {
	deleter, ok := a.kv.(storage.Deleter)
	if !ok {
		return ErrUnsupportedOperation
	}

	if err := deleter.Delete(ctx, service.ProgressKey(learner)); err != nil {
		return err
	}
	a.logger.Info("progress deleted", zap.String("learner", learner))
	return nil
}
