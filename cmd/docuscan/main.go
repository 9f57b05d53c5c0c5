// Command docuscan extracts structured invoice data from receipt scans and
// photos. It accepts files or directories, prints one JSON result per
// document, and optionally persists extractions and exports them to xlsx.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"docuscan/constants"
	"docuscan/internal/common"
	"docuscan/internal/export"
	"docuscan/internal/ocr"
	"docuscan/internal/pipeline"
	"docuscan/internal/preprocess"
	"docuscan/internal/repository"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "docuscan:", err)
		os.Exit(1)
	}
}

func run() error {
	// Local overrides for development; absence is fine.
	_ = godotenv.Load()

	cfg := common.LoadConfig()

	flags := ff.NewFlagSet("docuscan")
	var (
		dbPath       = flags.StringLong("db", cfg.Store.Path, "sqlite database path")
		noSave       = flags.BoolLong("no-save", "do not persist extractions")
		noPreprocess = flags.BoolLong("no-preprocess", "skip the image enhancement pass")
		useCloud     = flags.BoolLong("cloud", "prefer the cloud vision backend when configured")
		exportPath   = flags.StringLong("export", "", "write an xlsx workbook of stored documents to this path")
		cloudTimeout = flags.DurationLong("cloud-timeout", cfg.Cloud.Timeout, "deadline for one cloud recognition call")
		logLevel     = flags.StringLong("log-level", "info", "log level: debug, info, warn, error")
		debugTokens  = flags.BoolLong("debug-tokens", "include the raw token list in results")
	)

	if err := ff.Parse(flags, os.Args[1:], ff.WithEnvVarPrefix("DOCUSCAN")); err != nil {
		fmt.Fprintln(os.Stderr, ffhelp.Flags(flags))
		return err
	}

	logger := newLogger(*logLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	local := ocr.NewLocal(ocr.LocalConfig{
		Language:    cfg.OCR.Language,
		TessdataDir: cfg.OCR.TessdataDir,
	}, logger)
	defer local.Close()

	var enhancer preprocess.Enhancer
	if !*noPreprocess {
		enhancer = preprocess.NewPipeline(cfg.OCR.ArtifactDir, logger)
	}

	var cloud ocr.Backend
	if *useCloud || cfg.Cloud.Enabled {
		if cfg.Cloud.Endpoint == "" || cfg.Cloud.APIKey == "" {
			logger.Warn("cloud backend requested but VISION_ENDPOINT/VISION_API_KEY missing, using local only")
		} else {
			cloud = ocr.NewCloud(ocr.CloudConfig{
				Endpoint: cfg.Cloud.Endpoint,
				APIKey:   cfg.Cloud.APIKey,
			}, logger)
		}
	}

	selector := ocr.NewSelector(cloud, local, enhancer, *cloudTimeout, logger)

	var opts []pipeline.Option
	var store *repository.Store
	if !*noSave {
		var err error
		store, err = repository.NewStore(*dbPath, logger)
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, pipeline.WithStore(store))
	}
	if *debugTokens {
		opts = append(opts, pipeline.WithDebugTokens())
	}

	processor := pipeline.NewProcessor(selector, logger, opts...)

	paths, err := collectInputs(flags.GetArgs())
	if err != nil {
		return err
	}
	if len(paths) == 0 && *exportPath == "" {
		fmt.Fprintln(os.Stderr, ffhelp.Flags(flags))
		return fmt.Errorf("no input files")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	for _, p := range paths {
		result, err := processor.Process(ctx, p)
		if err != nil {
			return fmt.Errorf("process %s: %w", p, err)
		}
		if err := enc.Encode(result); err != nil {
			return err
		}
	}

	if *exportPath != "" {
		if store == nil {
			return fmt.Errorf("--export requires persistence; drop --no-save")
		}
		svc := export.NewService(store, logger)
		if err := svc.WriteFile(ctx, *exportPath); err != nil {
			return err
		}
		logger.Info("workbook written", "path", *exportPath)
	}
	return nil
}

// collectInputs expands the positional arguments: files pass through, and
// directories are walked for files with accepted extensions.
func collectInputs(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(p string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			ext := constants.NormalizeExt(filepath.Ext(p))
			if _, ok := constants.AllowedExtensions[ext]; ok {
				paths = append(paths, p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return paths, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
