package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/sells-group/contact-mapper/internal/config"
	"github.com/sells-group/contact-mapper/internal/mapper"
	"github.com/sells-group/contact-mapper/internal/model"
	"github.com/sells-group/contact-mapper/internal/output"
	"github.com/sells-group/contact-mapper/internal/seeds"
	"github.com/sells-group/contact-mapper/internal/store"
)

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Map contacts for every firm in a seed file",
	Long:  "Reads a JSON array of firm seeds, discovers and classifies attorney profile pages for each firm, and writes the contacts as one JSON array.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := applyMapFlags(cmd, cfg); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		m, err := initMapper(cfg)
		if err != nil {
			return err
		}

		st, err := initStore(cfg)
		if err != nil {
			return err
		}
		if st != nil {
			defer st.Close() //nolint:errcheck
			if err := st.Migrate(cmd.Context()); err != nil {
				return err
			}
		}

		job := mapJob{
			SeedPath:     cfg.Mapper.SeedPath,
			OutputPath:   cfg.Mapper.OutputPath,
			FallbackSeed: cfg.Mapper.FallbackSeed,
		}
		summary, err := runMap(cmd.Context(), m, st, job)
		if err != nil {
			return err
		}
		summary.print(os.Stdout)
		return nil
	},
}

func init() {
	registerMapFlags(mapCmd.Flags())
	rootCmd.AddCommand(mapCmd)
}

func registerMapFlags(f *pflag.FlagSet) {
	f.String("seeds", "", "seed file (default from config mapper.seed_path)")
	f.String("out", "", "output file (default from config mapper.output_path)")
	f.Int("concurrency", 0, "firms mapped in parallel")
	f.Duration("timeout", 0, "per-request timeout")
	f.Duration("delay", 0, "polite delay between requests to one firm")
	f.Int("max-candidates", 0, "profile pages fetched per firm (1-25)")
	f.String("rules", "", "classifier rules YAML overriding the built-in rules")
	f.Bool("fallback-seed", false, "use the built-in fallback seed when the seed file is missing or empty")
	f.Int("breaker-threshold", 0, "stop fetching from a firm after this many consecutive network failures (0 disables)")
}

// applyMapFlags copies explicitly set flags over the loaded configuration.
func applyMapFlags(cmd *cobra.Command, c *config.Config) error {
	f := cmd.Flags()
	if f.Changed("seeds") {
		c.Mapper.SeedPath, _ = f.GetString("seeds")
	}
	if f.Changed("out") {
		c.Mapper.OutputPath, _ = f.GetString("out")
	}
	if f.Changed("concurrency") {
		c.Mapper.Concurrency, _ = f.GetInt("concurrency")
	}
	if f.Changed("timeout") {
		d, _ := f.GetDuration("timeout")
		if d > 0 && d < time.Second {
			return eris.Errorf("--timeout must be at least 1s, got %s", d)
		}
		c.Mapper.TimeoutSecs = int(d / time.Second)
	}
	if f.Changed("delay") {
		d, _ := f.GetDuration("delay")
		if d > 0 && d < time.Millisecond {
			return eris.Errorf("--delay must be 0 or at least 1ms, got %s", d)
		}
		c.Mapper.DelayMs = int(d / time.Millisecond)
	}
	if f.Changed("max-candidates") {
		c.Mapper.MaxCandidates, _ = f.GetInt("max-candidates")
	}
	if f.Changed("rules") {
		c.Mapper.RulesPath, _ = f.GetString("rules")
	}
	if f.Changed("fallback-seed") {
		c.Mapper.FallbackSeed, _ = f.GetBool("fallback-seed")
	}
	if f.Changed("breaker-threshold") {
		c.Mapper.BreakerThreshold, _ = f.GetInt("breaker-threshold")
	}
	return nil
}

// mapJob names the files of one map run.
type mapJob struct {
	SeedPath     string
	OutputPath   string
	FallbackSeed bool
}

type mapSummary struct {
	RunID      string
	OutputPath string
	Firms      int
	Contacts   int
	Elapsed    time.Duration
}

func (s mapSummary) print(w io.Writer) {
	_, _ = fmt.Fprintf(w, "Wrote: %s (%d firms, %d contacts, %s)\n",
		s.OutputPath, s.Firms, s.Contacts, s.Elapsed.Round(time.Millisecond))
	if s.RunID != "" {
		_, _ = fmt.Fprintf(w, "Run: %s\n", s.RunID)
	}
}

// runMap loads seeds, maps every firm and writes the output file. Seed
// errors abort before any network activity; a cancelled context aborts
// before the output is written. st may be nil.
func runMap(ctx context.Context, m *mapper.Mapper, st store.Store, job mapJob) (*mapSummary, error) {
	start := time.Now()

	var (
		firms []model.FirmSeed
		err   error
	)
	if job.FallbackSeed {
		firms, err = seeds.LoadOrFallback(job.SeedPath)
	} else {
		firms, err = seeds.Load(job.SeedPath)
	}
	if err != nil {
		return nil, err
	}

	log := zap.L().With(zap.String("seeds", job.SeedPath), zap.String("out", job.OutputPath))
	log.Info("map: seeds loaded", zap.Int("firms", len(firms)))

	// Ledger writes outlive a cancelled run so failures are still recorded.
	ledgerCtx := context.WithoutCancel(ctx)

	var run *model.Run
	if st != nil {
		run, err = st.CreateRun(ledgerCtx, job.SeedPath, job.OutputPath)
		if err != nil {
			return nil, eris.Wrap(err, "map: record run")
		}
	}

	result, err := m.MapAll(ctx, firms)
	if err == nil {
		err = output.WriteJSON(job.OutputPath, result)
	}
	if err != nil {
		if run != nil {
			if ferr := st.FailRun(ledgerCtx, run.ID, err); ferr != nil {
				log.Warn("map: record run failure", zap.Error(ferr))
			}
		}
		return nil, eris.Wrap(err, "map")
	}

	summary := &mapSummary{
		OutputPath: job.OutputPath,
		Firms:      len(result),
		Contacts:   model.CountContacts(result),
		Elapsed:    time.Since(start),
	}
	if run != nil {
		summary.RunID = run.ID
		if err := st.CompleteRun(ledgerCtx, run.ID, result); err != nil {
			log.Warn("map: record run result", zap.Error(err))
		}
	}

	log.Info("map: complete",
		zap.Int("firms", summary.Firms),
		zap.Int("contacts", summary.Contacts),
		zap.Duration("elapsed", summary.Elapsed),
	)
	return summary, nil
}
