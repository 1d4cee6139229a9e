package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"causawatch-backend/lib/browser"
	"causawatch-backend/lib/configutil"
	"causawatch-backend/lib/serviceutil"
	"causawatch-backend/lib/telemetry"
	"causawatch-backend/lib/timezone"
	"causawatch-backend/services/notify"
	"causawatch-backend/services/registry"
	"causawatch-backend/services/registry/artifact"
	"causawatch-backend/services/registry/db"

	"github.com/go-resty/resty/v2"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type Config struct {
	BridgeUrl string `json:"bridge_url"`
	OutputDir string `json:"output_dir"`
	// DD/MM/YYYY override for development runs; empty means today
	FixedDate string `json:"fixed_date"`
	// section names to traverse; empty means all built-ins
	Sections []string `json:"sections"`
	// "overwrite" (default) or "keep"
	OnConflict string `json:"on_conflict"`
	// path of the seen-movement database; empty disables it
	SeenDb string `json:"seen_db"`
	// pdftoppm binary for previews; empty resolves from PATH
	Pdftoppm string `json:"pdftoppm"`
	// headers for the document transport, typically the session cookie
	// exported by the browser sidecar
	DownloadHeaders map[string]string `json:"download_headers"`
	JitterMinMs     int               `json:"jitter_min_ms"`
	JitterMaxMs     int               `json:"jitter_max_ms"`

	Smtp notify.SmtpConfig `json:"smtp"`
}

var runForce *bool
var runDryRun *bool

func init() {
	runForce = runCmd.Flags().Bool("force", false, "Run even on weekends.")
	runDryRun = runCmd.Flags().Bool("dry-run", false, "Collect movements without sending the notification.")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--force] [--dry-run]",
	Short: "Collects the day's movements and emails the report.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		if timezone.IsWeekend(timezone.Now()) && !*runForce {
			slog.Info("weekend, nothing to do")
			return
		}

		cfg, err := configutil.ReadConfig[Config]("config.json5")
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}

		targetDate := cfg.FixedDate
		if targetDate == "" {
			targetDate = timezone.Today()
		}

		sections := registry.BuiltinSections()
		if len(cfg.Sections) > 0 {
			sections = registry.SectionsByName(cfg.Sections)
		}

		transport := resty.New()
		for key, value := range cfg.DownloadHeaders {
			transport.SetHeader(key, value)
		}
		telemetry.InstrumentResty(transport, "causawatch/transport")

		onConflict := artifact.Overwrite
		if cfg.OnConflict == "keep" {
			onConflict = artifact.Keep
		}
		pipeline := artifact.NewPipeline(artifact.PipelineOptions{
			Http:       transport,
			Rasterizer: artifact.PopplerRasterizer{Binary: cfg.Pdftoppm},
			OnConflict: onConflict,
		})
		if err := artifact.CleanTempFiles(cfg.OutputDir); err != nil {
			slog.Warn("could not clean leftover temp downloads", "err", err)
		}

		var seen *db.SeenStore
		if cfg.SeenDb != "" {
			seen, err = db.Open(cfg.SeenDb)
			if err != nil {
				serviceutil.Fatal("failed to open seen-movement db", err)
			}
			defer seen.Close()

			pruned, err := seen.PruneMissing(ctx)
			if err != nil {
				serviceutil.Fatal("failed to prune seen-movement db", err)
			}
			if pruned > 0 {
				slog.Info("pruned seen movements with missing files", "count", pruned)
			}
		}

		bridge := browser.NewBridge(browser.BridgeOptions{BaseUrl: cfg.BridgeUrl})
		traversal := &registry.Traversal{
			Page:       bridge,
			Pipeline:   pipeline,
			Sections:   sections,
			TargetDate: targetDate,
			OutputDir:  cfg.OutputDir,
			Seen:       seen,
			EnterSection: func(ctx context.Context, section registry.Section) error {
				if _, err := bridge.Evaluate(ctx, section.TabScript+"();"); err != nil {
					return err
				}
				return bridge.WaitFor(ctx, section.TotalSelector)
			},
			JitterMin: jitterDuration(cfg.JitterMinMs, 800*time.Millisecond),
			JitterMax: jitterDuration(cfg.JitterMaxMs, 2500*time.Millisecond),
		}

		slog.Info("starting traversal",
			"target_date", targetDate,
			"sections", len(sections),
		)
		started := time.Now()
		result, err := traversal.Run(ctx)
		if err != nil {
			serviceutil.Fatal("traversal aborted", err)
		}
		slog.Info("traversal finished",
			"seconds", time.Since(started).Seconds(),
			"movements", len(result.Movements),
		)

		renderSummary(sections, result)

		if *runDryRun {
			slog.Info("dry run, skipping notification")
			return
		}
		report, err := notify.BuildReport(result.NewMovements())
		if err != nil {
			serviceutil.Fatal("failed to build report", err)
		}
		if err := notify.NewNotifier(cfg.Smtp).Send(ctx, report); err != nil {
			serviceutil.Fatal("failed to send notification", err)
		}
	},
}

func jitterDuration(ms int, fallback time.Duration) time.Duration {
	if ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}

func renderSummary(sections []registry.Section, result registry.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Section", "Cases", "Movements", "Documents", "Skipped"})
	for _, section := range sections {
		count := result.Counts[section.Name]
		if count == nil {
			continue
		}
		t.AppendRow(table.Row{
			section.Name, count.Cases, count.Movements, count.Documents, count.Skipped,
		})
	}
	t.AppendFooter(table.Row{"", "", fmt.Sprintf("new: %d", len(result.NewMovements())), "", ""})
	t.Render()
}
