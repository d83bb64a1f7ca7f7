package main

import (
	"os"
	"runtime"

	"github.com/andresuchdata/salesvelocity/internal/pipeline/sales_velocity"
	"github.com/andresuchdata/salesvelocity/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	// .env is optional
	_ = godotenv.Load(".env")

	app := newApp()
	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("velocity failed")
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "velocity",
		Usage: "Compute sales velocity and restocking recommendations from sales workbooks",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (console or json)",
				Value:   "console",
				EnvVars: []string{"LOG_FORMAT"},
			},
		},
		Before: func(c *cli.Context) error {
			logger.Configure(logger.Options{
				Level:  c.String("log-level"),
				Format: c.String("log-format"),
				Output: c.App.ErrWriter,
			})
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "report",
				Usage:     "Build the report views for a single workbook",
				ArgsUsage: " ",
				Flags:     append(reportFlags(), singleReportFlags()...),
				Action:    runReport,
			},
			{
				Name:   "batch",
				Usage:  "Build reports for every workbook in a directory or storage prefix, grouped by snapshot date",
				Flags:  append(reportFlags(), append(batchFlags(), storageFlags()...)...),
				Action: runBatch,
			},
		},
	}
}

func reportFlags() []cli.Flag {
	d := sales_velocity.DefaultConfig()
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "sales-sheet",
			Usage:   "Name of the wide sales sheet",
			Value:   d.SalesSheet,
			EnvVars: []string{"SALES_SHEET"},
		},
		&cli.StringFlag{
			Name:    "profit-sheet",
			Usage:   "Name of the wide gross profit sheet",
			Value:   d.ProfitSheet,
			EnvVars: []string{"PROFIT_SHEET"},
		},
		&cli.StringFlag{
			Name:    "inventory-sheet",
			Usage:   "Name of the inventory snapshot sheet",
			Value:   d.InventorySheet,
			EnvVars: []string{"INVENTORY_SHEET"},
		},
		&cli.IntFlag{
			Name:    "velocity-window",
			Usage:   "Trailing window (dates) of the daily retail rate",
			Value:   d.VelocityWindow,
			EnvVars: []string{"VELOCITY_WINDOW"},
		},
		&cli.IntFlag{
			Name:    "trend-window",
			Usage:   "Centered window (dates, odd) of the moving averages",
			Value:   d.TrendWindow,
			EnvVars: []string{"TREND_WINDOW"},
		},
		&cli.Float64Flag{
			Name:    "urgent-days",
			Usage:   "Days of inventory at or below which restock is urgent",
			Value:   d.Thresholds.UrgentDays,
			EnvVars: []string{"URGENT_RESTOCK_DAYS"},
		},
		&cli.Float64Flag{
			Name:    "restock-soon-days",
			Usage:   "Days of inventory at or below which restock is due soon",
			Value:   d.Thresholds.RestockSoonDays,
			EnvVars: []string{"RESTOCK_SOON_DAYS"},
		},
		&cli.Float64Flag{
			Name:    "monitor-days",
			Usage:   "Days of inventory at or below which inventory is monitored",
			Value:   d.Thresholds.MonitorDays,
			EnvVars: []string{"MONITOR_DAYS"},
		},
		&cli.StringFlag{
			Name:    "output-dir",
			Usage:   "Directory for the report CSVs",
			Value:   "./data/output",
			EnvVars: []string{"APP_DATA_DIR"},
		},
	}
}

func singleReportFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "file",
			Aliases:  []string{"f"},
			Usage:    "Workbook (.xlsx) to process",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "asin",
			Usage: "Only export rows of this ASIN (All for every product)",
			Value: "All",
		},
		&cli.StringFlag{
			Name:  "date",
			Usage: "Only export rows of this date, YYYY-MM-DD or YYYYMMDD (All for every date)",
			Value: "All",
		},
		&cli.StringFlag{
			Name:  "drr-csv",
			Usage: "Also write the daily retail rate as a product-by-date CSV to this path",
		},
	}
}

func batchFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "input-dir",
			Usage:   "Local directory containing workbooks (ignored when --storage-prefix is set)",
			Value:   "./data/input",
			EnvVars: []string{"VELOCITY_INPUT_DIR"},
		},
		&cli.StringFlag{
			Name:    "input-date-format",
			Usage:   "Date layout of the filename prefix used to group workbooks (Go layout)",
			Value:   "20060102",
			EnvVars: []string{"VELOCITY_INPUT_DATE_FORMAT"},
		},
		&cli.IntFlag{
			Name:    "pipeline-workers",
			Usage:   "Number of workbooks processed concurrently",
			Value:   runtime.NumCPU(),
			EnvVars: []string{"PIPELINE_WORKERS"},
		},
		&cli.IntFlag{
			Name:  "batch-size",
			Usage: "Number of workbooks buffered before their rows are flushed to CSV",
			Value: 5,
		},
	}
}

func storageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "storage-endpoint", Usage: "S3-compatible endpoint", EnvVars: []string{"STORAGE_ENDPOINT"}},
		&cli.StringFlag{Name: "storage-access-key", Usage: "Storage access key", EnvVars: []string{"STORAGE_ACCESS_KEY"}},
		&cli.StringFlag{Name: "storage-secret-key", Usage: "Storage secret key", EnvVars: []string{"STORAGE_SECRET_KEY"}},
		&cli.StringFlag{Name: "storage-bucket", Usage: "Storage bucket", EnvVars: []string{"STORAGE_BUCKET"}},
		&cli.StringFlag{Name: "storage-region", Usage: "Storage region", EnvVars: []string{"STORAGE_REGION"}},
		&cli.BoolFlag{Name: "storage-use-ssl", Usage: "Use TLS for the storage endpoint", Value: true, EnvVars: []string{"STORAGE_USE_SSL"}},
		&cli.StringFlag{
			Name:    "storage-prefix",
			Usage:   "Download workbooks under this prefix instead of reading --input-dir",
			EnvVars: []string{"STORAGE_INPUT_PREFIX"},
		},
		&cli.StringFlag{
			Name:    "publish-prefix",
			Usage:   "Upload every written CSV under this prefix (empty disables publishing)",
			EnvVars: []string{"STORAGE_OUTPUT_PREFIX"},
		},
		&cli.StringFlag{
			Name:  "download-dir",
			Usage: "Local directory for downloaded workbooks",
			Value: "./data/tmp/velocity",
		},
	}
}

func configFromFlags(c *cli.Context) sales_velocity.Config {
	cfg := sales_velocity.DefaultConfig()
	cfg.SalesSheet = c.String("sales-sheet")
	cfg.ProfitSheet = c.String("profit-sheet")
	cfg.InventorySheet = c.String("inventory-sheet")
	cfg.VelocityWindow = c.Int("velocity-window")
	cfg.TrendWindow = c.Int("trend-window")
	cfg.Thresholds = sales_velocity.Thresholds{
		UrgentDays:      c.Float64("urgent-days"),
		RestockSoonDays: c.Float64("restock-soon-days"),
		MonitorDays:     c.Float64("monitor-days"),
	}
	if layout := c.String("input-date-format"); layout != "" {
		cfg.InputDateFormat = layout
	}
	return cfg
}
