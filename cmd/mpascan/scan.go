package main

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/jengzang/mpawatch-backend-go/internal/analysis"
	"github.com/jengzang/mpawatch-backend-go/internal/config"
	"github.com/jengzang/mpawatch-backend-go/internal/logging"
	"github.com/jengzang/mpawatch-backend-go/internal/models"
	"github.com/jengzang/mpawatch-backend-go/internal/repository"
	"github.com/jengzang/mpawatch-backend-go/internal/service"
)

type scanOptions struct {
	input   string
	output  string
	geojson bool
}

func newScanCommand() *cobra.Command {
	opts := &scanOptions{}

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Classify the observations of a CSV file",
		Long: "Reads vessel observations (vessel_id, speed, distance_from_shore, " +
			"distance_from_port, lat, lon) and writes each vessel at sea with its " +
			"fishing prediction and illegal label. Batches larger than the API cap " +
			"are processed in chunks.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "observation CSV file")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&opts.geojson, "geojson", false, "write a GeoJSON FeatureCollection instead of CSV")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runScan(cmd *cobra.Command, opts *scanOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	// Keep stdout clean for the results
	cfg.Log.Output = cmd.ErrOrStderr()
	logger := logging.New(cfg.Log)

	in, err := os.Open(opts.input)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer in.Close()

	batch, err := repository.ReadObservationsCSV(in)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	res, err := service.LoadResources(ctx, cfg, logging.Component(logger, "resources"))
	if err != nil {
		return err
	}
	defer res.Close()

	pipeline := analysis.NewPipeline(res.Index, res.Classifier, res.Validator, logging.Component(logger, "pipeline"))

	records := []models.FinalRecord{}
	for start := 0; start < len(batch); start += analysis.MaxBatchSize {
		end := min(start+analysis.MaxBatchSize, len(batch))
		result, err := pipeline.Run(ctx, batch[start:end])
		if err != nil {
			return fmt.Errorf("records %d-%d: %w", start, end-1, err)
		}
		if result.Empty() {
			logger.Info().Int("from", start).Int("to", end-1).Msg(result.Message)
			continue
		}
		records = append(records, result.Records...)
	}

	var out io.Writer = cmd.OutOrStdout()
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	summary := models.Summarize(records)
	logger.Info().
		Int("input", len(batch)).
		Int("records", len(records)).
		Int("yes", summary[models.IllegalYes]).
		Int("maybe", summary[models.IllegalMaybe]).
		Int("no", summary[models.IllegalNo]).
		Msg("scan complete")

	if opts.geojson {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(models.RecordsFeatureCollection(records))
	}
	return repository.WriteRecordsCSV(out, records)
}
