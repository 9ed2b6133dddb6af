package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hepacheck/hepacheck/internal/config"
	"github.com/hepacheck/hepacheck/internal/domain/scoring"
	"github.com/hepacheck/hepacheck/internal/platform/auth"
	"github.com/hepacheck/hepacheck/internal/platform/db"
	"github.com/hepacheck/hepacheck/internal/validation"
	"github.com/hepacheck/hepacheck/migrations"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run PostgreSQL schema migrations",
	}

	// migrate up
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			ctx := context.Background()
			migrator, closeFn, err := openMigrator(ctx, dir)
			if err != nil {
				return err
			}
			defer closeFn()

			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "", "Path to a migrations directory (defaults to the embedded set)")
	cmd.AddCommand(upCmd)

	// migrate status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			ctx := context.Background()
			migrator, closeFn, err := openMigrator(ctx, dir)
			if err != nil {
				return err
			}
			defer closeFn()

			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "", "Path to a migrations directory (defaults to the embedded set)")
	cmd.AddCommand(statusCmd)

	return cmd
}

func openMigrator(ctx context.Context, dir string) (*db.Migrator, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	kind, err := cfg.StoreKind()
	if err != nil {
		return nil, nil, err
	}
	if kind != config.StorePostgres {
		return nil, nil, fmt.Errorf("migrations apply to PostgreSQL only; the SQLite store creates its schema on open")
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, nil, err
	}
	var fsys fs.FS = migrations.FS
	if dir != "" {
		fsys = os.DirFS(dir)
	}
	return db.NewMigrator(pool, fsys), pool.Close, nil
}

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Recompute scores over reference CSV datasets and report the error",
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, _ := cmd.Flags().GetString("data-dir")
			outDir, _ := cmd.Flags().GetString("out-dir")
			format, _ := cmd.Flags().GetString("format")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			runner := validation.NewRunner(dataDir, outDir, logger.With().Str("component", "validation").Logger())
			if v, _ := cmd.Flags().GetString("fib4-apri"); v != "" {
				runner.Files.FIB4APRI = v
			}
			if v, _ := cmd.Flags().GetString("nfs"); v != "" {
				runner.Files.NFS = v
			}
			if v, _ := cmd.Flags().GetString("homa"); v != "" {
				runner.Files.HOMA = v
			}

			summary, err := runner.Run(cmd.Context())
			if err != nil {
				return err
			}
			if chartsDir, _ := cmd.Flags().GetString("charts"); chartsDir != "" {
				written, err := validation.RenderCharts(summary, chartsDir)
				if err != nil {
					return fmt.Errorf("render charts: %w", err)
				}
				logger.Info().Strs("files", written).Msg("wrote validation charts")
			}
			return validation.Encode(cmd.OutOrStdout(), format, summary)
		},
	}
	cmd.Flags().String("data-dir", "data", "Directory holding the input datasets")
	cmd.Flags().String("out-dir", "results", "Directory for the validation tables")
	cmd.Flags().String("fib4-apri", "", "FIB-4/APRI dataset file name (default "+validation.DefaultFiles().FIB4APRI+")")
	cmd.Flags().String("nfs", "", "NFS dataset file name (default "+validation.DefaultFiles().NFS+")")
	cmd.Flags().String("homa", "", "HOMA-IR dataset file name (default "+validation.DefaultFiles().HOMA+")")
	cmd.Flags().String("format", "json", "Summary format: json or yaml")
	cmd.Flags().String("charts", "", "Also write HTML charts of the results into this directory")
	return cmd
}

var panelFlags = []struct {
	name  string
	usage string
	set   func(p *scoring.LabPanel, v float64)
}{
	{"age", "Age in years", func(p *scoring.LabPanel, v float64) { p.Age = scoring.Float(v) }},
	{"ast", "AST (U/L)", func(p *scoring.LabPanel, v float64) { p.AST = scoring.Float(v) }},
	{"alt", "ALT (U/L)", func(p *scoring.LabPanel, v float64) { p.ALT = scoring.Float(v) }},
	{"platelets", "Platelet count (10^9/L)", func(p *scoring.LabPanel, v float64) { p.Platelets = scoring.Float(v) }},
	{"albumin", "Albumin (g/dL)", func(p *scoring.LabPanel, v float64) { p.Albumin = scoring.Float(v) }},
	{"bmi", "Body mass index (kg/m^2)", func(p *scoring.LabPanel, v float64) { p.BMI = scoring.Float(v) }},
	{"glucose", "Fasting glucose", func(p *scoring.LabPanel, v float64) { p.Glucose = scoring.Float(v) }},
	{"insulin", "Fasting insulin (uU/mL)", func(p *scoring.LabPanel, v float64) { p.Insulin = scoring.Float(v) }},
	{"ast-uln", "AST upper limit of normal (default 40)", func(p *scoring.LabPanel, v float64) { p.ASTULN = scoring.Float(v) }},
}

func computeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Compute FIB-4, APRI, NFS and HOMA-IR for one panel",
		RunE: func(cmd *cobra.Command, args []string) error {
			var p scoring.LabPanel
			for _, f := range panelFlags {
				if !cmd.Flags().Changed(f.name) {
					continue
				}
				v, _ := cmd.Flags().GetFloat64(f.name)
				f.set(&p, v)
			}
			if cmd.Flags().Changed("diabetes") {
				v, _ := cmd.Flags().GetBool("diabetes")
				p.Diabetes = scoring.Bool(v)
			}
			unitStr, _ := cmd.Flags().GetString("glucose-unit")
			unit, err := scoring.ParseGlucoseUnit(unitStr)
			if err != nil {
				return err
			}
			p.GlucoseUnit = unit

			strict, _ := cmd.Flags().GetBool("strict")
			format, _ := cmd.Flags().GetString("format")

			result := scoring.Compute(p)
			if strict {
				if result, err = scoring.ComputeStrict(p); err != nil {
					return err
				}
			}
			return validation.Encode(cmd.OutOrStdout(), format, result)
		},
	}
	for _, f := range panelFlags {
		cmd.Flags().Float64(f.name, 0, f.usage)
	}
	cmd.Flags().Bool("diabetes", false, "Diabetes or impaired fasting glucose")
	cmd.Flags().String("glucose-unit", "", "Glucose unit: mg/dL (default) or mmol/L")
	cmd.Flags().Bool("strict", false, "Fail on missing or non-positive inputs instead of leaving scores undefined")
	cmd.Flags().String("format", "json", "Output format: json or yaml")
	return cmd
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token signed with AUTH_JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			subject, _ := cmd.Flags().GetString("subject")
			ttl, _ := cmd.Flags().GetDuration("ttl")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.JWTSecret == "" {
				return fmt.Errorf("AUTH_JWT_SECRET is not set")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			token, err := auth.IssueToken([]byte(cfg.JWTSecret), subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().String("subject", "", "Token subject, e.g. a clinic or service name")
	cmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
	return cmd
}
