package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/diwise/dataset-converter/internal/pkg/application/converter"
	"github.com/diwise/dataset-converter/internal/pkg/application/dataset"
	"github.com/diwise/dataset-converter/internal/pkg/infrastructure/kaggle"
	"github.com/diwise/dataset-converter/internal/pkg/presentation/summary"
	"github.com/diwise/service-chassis/pkg/infrastructure/env"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/urfave/cli/v2"
)

func newApp(out io.Writer, version string) *cli.App {
	return &cli.App{
		Name:    appName,
		Usage:   "download a dataset and turn its json records into csv",
		Version: version,
		Writer:  out,
		// errors are logged and mapped to exit codes by main
		ExitErrHandler: func(*cli.Context, error) {},
		Commands: []*cli.Command{
			convertCommand(out),
			fetchCommand(out),
		},
	}
}

func convertCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     "convert a json array of records into a csv file",
		ArgsUsage: "[input.json] [output.csv]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: configPath, Usage: "yaml file with conversion settings", EnvVars: []string{"CONVERTER_CONFIG"}},
			&cli.StringFlag{Name: schemaMode, Usage: "column inference: strict or union"},
			&cli.StringFlag{Name: nestedPolicy, Usage: "nested objects and arrays: reject, json or flatten"},
			&cli.StringFlag{Name: delimiter, Usage: "field delimiter, a single character or \"tab\""},
			&cli.BoolFlag{Name: useCRLF, Usage: "terminate lines with \\r\\n"},
			&cli.BoolFlag{Name: indexColumn, Usage: "prepend a column holding each record's position"},
			&cli.IntFlag{Name: previewRows, Usage: "rows to show in the summary"},
			&cli.StringFlag{Name: datasetID, Usage: "kaggle dataset (owner/slug) to download when the input file is missing"},
			&cli.StringFlag{Name: datasetDir, Usage: "where to extract a downloaded dataset (defaults to the input directory)"},
		},
		Action: func(cCtx *cli.Context) error {
			ctx := cCtx.Context

			cfg, err := loadConfig(cCtx)
			if err != nil {
				return err
			}

			opts, err := cfg.Options()
			if err != nil {
				return err
			}

			input := cCtx.Args().Get(0)
			if input == "" {
				input = defaultInputPath
			}

			output := cCtx.Args().Get(1)
			if output == "" {
				output = converter.DefaultOutputPath(input)
			}

			if cfg.Dataset.ID != "" {
				_, err = dataset.EnsureLocal(ctx, newKaggleClient(ctx), cfg.Dataset.ID, input, cfg.Dataset.Dir)
				if err != nil {
					return err
				}
			}

			result, err := converter.New(opts).Convert(ctx, input, output)
			if err != nil {
				return err
			}

			logging.GetFromContext(ctx).Info("conversion completed",
				slog.String("output", result.Output),
				slog.Int("records", result.Records),
			)

			return summary.Write(out, result)
		},
	}
}

func fetchCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "download and extract a kaggle dataset",
		ArgsUsage: "[owner/slug]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: fetchDir, Value: defaultFetchDir, Usage: "directory to extract the dataset into"},
		},
		Action: func(cCtx *cli.Context) error {
			ctx := cCtx.Context

			id := cCtx.Args().First()
			if id == "" {
				id = dataset.DefaultDatasetID
			}

			dir, err := newKaggleClient(ctx).Download(ctx, id, cCtx.String(fetchDir))
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(out, "dataset files extracted to %s\n", dir)
			return err
		},
	}
}

func loadConfig(cCtx *cli.Context) (*converter.Config, error) {
	cfg := converter.DefaultConfig()

	if path := cCtx.String(configPath); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open configuration file: %w", err)
		}
		defer f.Close()

		cfg, err = converter.LoadConfiguration(f)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration from %s: %w", path, err)
		}
	}

	if cCtx.IsSet(schemaMode) {
		cfg.Schema = cCtx.String(schemaMode)
	}
	if cCtx.IsSet(nestedPolicy) {
		cfg.Nested = cCtx.String(nestedPolicy)
	}
	if cCtx.IsSet(delimiter) {
		cfg.Delimiter = cCtx.String(delimiter)
	}
	if cCtx.IsSet(useCRLF) {
		cfg.CRLF = cCtx.Bool(useCRLF)
	}
	if cCtx.IsSet(indexColumn) {
		cfg.Index = cCtx.Bool(indexColumn)
	}
	if cCtx.IsSet(previewRows) {
		cfg.Preview = cCtx.Int(previewRows)
	}
	if cCtx.IsSet(datasetID) {
		cfg.Dataset.ID = cCtx.String(datasetID)
	}
	if cCtx.IsSet(datasetDir) {
		cfg.Dataset.Dir = cCtx.String(datasetDir)
	}

	return cfg, nil
}

func newKaggleClient(ctx context.Context) kaggle.Client {
	return kaggle.NewClient(
		env.GetVariableOrDefault(ctx, "KAGGLE_API_URL", kaggle.DefaultBaseURL),
		kaggle.Credentials(
			env.GetVariableOrDefault(ctx, "KAGGLE_USERNAME", ""),
			env.GetVariableOrDefault(ctx, "KAGGLE_KEY", ""),
		),
		kaggle.Debug(env.GetVariableOrDefault(ctx, "KAGGLE_DEBUG", "false")),
	)
}
