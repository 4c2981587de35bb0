package converter

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/diwise/dataset-converter/pkg/table"
	tableerrors "github.com/diwise/dataset-converter/pkg/table/errors"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Options struct {
	Schema    table.SchemaMode
	Nested    table.NestedPolicy
	Delimiter rune
	CRLF      bool
	Index     bool
	Preview   int
}

func DefaultOptions() Options {
	return Options{
		Schema:    table.SchemaStrict,
		Nested:    table.NestedReject,
		Delimiter: ',',
		Preview:   DefaultPreviewRows,
	}
}

// Result describes a finished conversion. With Index set the first entry of
// Columns is the unnamed index column.
type Result struct {
	Input   string
	Output  string
	Columns []string
	Index   bool
	Records int
	Bytes   int64
	Preview [][]string
}

type Converter interface {
	// Convert reads the JSON array in inputPath and writes it as CSV to
	// outputPath. The output file is only touched once the whole input has
	// been parsed and rendered.
	Convert(ctx context.Context, inputPath, outputPath string) (*Result, error)
}

const (
	TraceAttributeInputPath  string = "input-path"
	TraceAttributeOutputPath string = "output-path"
)

var tracer = otel.Tracer("dataset-converter/converter")

type converter struct {
	opts Options
}

func New(opts Options) Converter {
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}

	return &converter{opts: opts}
}

func (c *converter) Convert(ctx context.Context, inputPath, outputPath string) (*Result, error) {
	var err error

	ctx, span := tracer.Start(ctx, "convert",
		trace.WithAttributes(attribute.String(TraceAttributeInputPath, inputPath)),
		trace.WithAttributes(attribute.String(TraceAttributeOutputPath, outputPath)),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	log := logging.GetFromContext(ctx).With(
		slog.String("input", inputPath),
		slog.String("output", outputPath),
	)

	if err = table.ValidDelimiter(c.opts.Delimiter); err != nil {
		return nil, err
	}

	log.Debug("reading json input")

	data, err := readInput(inputPath)
	if err != nil {
		return nil, err
	}

	dataset, err := table.Decode(data, table.WithNestedPolicy(c.opts.Nested))
	if err != nil {
		err = tableerrors.WithPath(inputPath, err)
		return nil, err
	}

	columns, err := table.InferColumns(dataset, c.opts.Schema)
	if err != nil {
		err = tableerrors.WithPath(inputPath, err)
		return nil, err
	}

	if len(dataset) == 0 {
		log.Warn("input holds no records, the output file will be empty")
	}

	t := table.NewTable(dataset, columns, c.opts.Index)

	size, err := writeOutput(outputPath, t,
		table.Delimiter(c.opts.Delimiter),
		table.CRLF(c.opts.CRLF),
	)
	if err != nil {
		return nil, err
	}

	log.Debug("csv written",
		slog.Int("records", len(dataset)),
		slog.Int("columns", len(columns)),
		slog.Int64("bytes", size),
	)

	preview := t.Rows
	if len(preview) > c.opts.Preview {
		preview = preview[:c.opts.Preview]
	}

	return &Result{
		Input:   inputPath,
		Output:  outputPath,
		Columns: t.Header,
		Index:   c.opts.Index,
		Records: len(dataset),
		Bytes:   size,
		Preview: preview,
	}, nil
}

// DefaultOutputPath places <stem>_converted.csv next to the input file
func DefaultOutputPath(inputPath string) string {
	base := filepath.Base(inputPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(inputPath), stem+"_converted.csv")
}

func readInput(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, tableerrors.NewNotFoundError(path, err)
		}
		return nil, tableerrors.NewIOError("open", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, tableerrors.NewIOError("read", path, err)
	}

	return data, nil
}

func writeOutput(path string, t table.Table, options ...table.WriterOption) (size int64, err error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, tableerrors.NewIOError("create", path, err)
	}

	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = tableerrors.NewIOError("close", path, closeErr)
		}
	}()

	w := &countingWriter{w: f}
	if err = table.WriteCSV(w, t, options...); err != nil {
		return 0, tableerrors.NewIOError("write", path, err)
	}

	return w.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}
