package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/andresuchdata/salesvelocity/internal/service"
	"github.com/andresuchdata/salesvelocity/internal/storage"
	"github.com/andresuchdata/salesvelocity/pkg/logger"
	"github.com/urfave/cli/v2"
)

func runBatch(c *cli.Context) error {
	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := configFromFlags(c)
	if err := cfg.Validate(); err != nil {
		return err
	}

	store, err := storageFromFlags(c)
	if err != nil {
		return err
	}

	prefix := c.String("storage-prefix")
	if prefix != "" && store == nil {
		return fmt.Errorf("--storage-prefix requires --storage-endpoint")
	}

	batch := service.NewBatchService(cfg, store, service.BatchOptions{
		OutputDir:     c.String("output-dir"),
		DownloadDir:   c.String("download-dir"),
		InputPrefix:   prefix,
		PublishPrefix: c.String("publish-prefix"),
		Workers:       c.Int("pipeline-workers"),
		BatchSize:     c.Int("batch-size"),
	})

	var result *service.BatchResult
	if prefix != "" {
		result, err = batch.Ingest(ctx, prefix)
	} else {
		var files []string
		if files, err = listWorkbooks(c.String("input-dir")); err != nil {
			return err
		}
		result, err = batch.RunFiles(ctx, files)
	}
	if result != nil {
		logger.Log.Info().
			Int("files", len(result.Files)).
			Int("dates", len(result.Runs)).
			Int("published", len(result.Published)).
			Str("duration", result.Duration).
			Msg("Batch finished")
	}
	if err != nil {
		return fmt.Errorf("batch finished with failures: %w", err)
	}
	return nil
}

func storageFromFlags(c *cli.Context) (storage.ObjectStorage, error) {
	if c.String("storage-endpoint") == "" {
		return nil, nil
	}
	client, err := storage.NewMinioClient(storage.MinioConfig{
		Endpoint:  c.String("storage-endpoint"),
		AccessKey: c.String("storage-access-key"),
		SecretKey: c.String("storage-secret-key"),
		Bucket:    c.String("storage-bucket"),
		Region:    c.String("storage-region"),
		UseSSL:    c.Bool("storage-use-ssl"),
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// listWorkbooks returns the .xlsx files directly inside dir, skipping Excel lock files.
func listWorkbooks(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input dir %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, "~$") || !strings.EqualFold(filepath.Ext(name), ".xlsx") {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Strings(files)
	return files, nil
}
