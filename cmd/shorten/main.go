package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/RMahshie/fiberscope/internal/config"
	"github.com/RMahshie/fiberscope/internal/fiber"
	"github.com/RMahshie/fiberscope/internal/storage"
)

var (
	flagIn         string
	flagOut        string
	flagDest       string
	flagInSuffix   string
	flagOutSuffix  string
	flagTimeFactor int
	flagFreqFactor int
	flagGroups     []int
	flagPerGroup   int
	flagDiscover   bool
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd := &cobra.Command{
		Use:   "shorten",
		Short: "Downsample fiber spectrograms for the dashboard",
		Long: `shorten reads the full resolution arrays of every fiber, keeps every Nth
time sample, max-pools adjacent frequency bins and writes the result with
the _short suffix the dashboard loads by default. Timestamps are read from
the parquet table when present, keeping only slots marked has_data, and
written back as a parquet table.

Fibers with missing or inconsistent files are logged and skipped.`,
		RunE: run,
	}

	rootCmd.Flags().StringVar(&flagIn, "in", "data/raw", "Directory holding the full resolution arrays")
	rootCmd.Flags().StringVar(&flagOut, "out", "data", "Output directory for --dest local")
	rootCmd.Flags().StringVar(&flagDest, "dest", "local", "Output destination: local or s3 (uses S3_* environment)")
	rootCmd.Flags().StringVar(&flagInSuffix, "in-suffix", "", "File suffix of the input arrays")
	rootCmd.Flags().StringVar(&flagOutSuffix, "out-suffix", "_short", "File suffix of the output arrays")
	rootCmd.Flags().IntVar(&flagTimeFactor, "time-factor", 10, "Keep every Nth time sample")
	rootCmd.Flags().IntVar(&flagFreqFactor, "freq-factor", 2, "Frequency bins pooled into one")
	rootCmd.Flags().IntSliceVar(&flagGroups, "groups", []int{1, 2}, "Fiber groups to process")
	rootCmd.Flags().IntVar(&flagPerGroup, "per-group", 5, "Fibers per group")
	rootCmd.Flags().BoolVar(&flagDiscover, "discover", false, "Process every fiber found in --in instead of the group grid")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	src, err := storage.NewLocalStore(flagIn)
	if err != nil {
		return err
	}
	dst, err := destination(ctx)
	if err != nil {
		return err
	}

	loader := fiber.NewLoader(src, fiber.Options{
		Suffix:         flagInSuffix,
		TimeDownsample: flagTimeFactor,
		FreqDownsample: flagFreqFactor,
	})
	writer := fiber.NewWriter(dst, flagOutSuffix)

	mode := fiber.SelectGrid
	if flagDiscover {
		mode = fiber.SelectListing
	}
	ids, err := loader.Resolve(ctx, mode, flagGroups, flagPerGroup)
	if err != nil {
		return err
	}

	var written int
	for _, id := range ids {
		d, err := loader.Load(ctx, id)
		if err != nil {
			log.Error().Err(err).Str("fiberID", id.String()).Msg("Skipping fiber")
			continue
		}
		if err := writer.Write(ctx, d); err != nil {
			log.Error().Err(err).Str("fiberID", id.String()).Msg("Failed to write fiber")
			continue
		}
		written++
	}

	if written == 0 {
		return fmt.Errorf("no fibers written")
	}
	log.Info().Int("fibers", written).Msg("Shortened data written")
	return nil
}

func destination(ctx context.Context) (storage.ArrayStore, error) {
	switch flagDest {
	case "local":
		if err := os.MkdirAll(flagOut, 0o755); err != nil {
			return nil, err
		}
		return storage.NewLocalStore(flagOut)
	case "s3":
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		return storage.NewS3Store(ctx, storage.S3Config{
			Bucket:    cfg.AWS.S3Bucket,
			Prefix:    cfg.AWS.S3Prefix,
			Endpoint:  cfg.AWS.S3Endpoint,
			Region:    cfg.AWS.Region,
			AccessKey: cfg.AWS.AccessKeyID,
			SecretKey: cfg.AWS.SecretAccessKey,
		})
	default:
		return nil, fmt.Errorf("unknown destination %q", flagDest)
	}
}
