package summary

import (
	"fmt"
	"io"
	"strings"

	"github.com/diwise/dataset-converter/internal/pkg/application/converter"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
)

// Write prints the dimensions, the column names and a preview of the first
// rows of a finished conversion.
func Write(w io.Writer, result *converter.Result) error {
	if result == nil {
		return nil
	}

	_, err := fmt.Fprintf(w, "converted %s -> %s\n", result.Input, result.Output)
	if err != nil {
		return err
	}

	columns := result.Columns
	if result.Index && len(columns) > 0 {
		columns = columns[1:]
	}

	fmt.Fprintf(w, "dimensions: %s records x %d columns\n", humanize.Comma(int64(result.Records)), len(columns))

	if len(columns) == 0 {
		fmt.Fprintf(w, "size: %s\n", humanize.Bytes(uint64(result.Bytes)))
		return nil
	}

	fmt.Fprintf(w, "columns: %s\n", strings.Join(columns, ", "))

	if len(result.Preview) > 0 {
		fmt.Fprintf(w, "first %d rows:\n", len(result.Preview))
		previewTable(w, result.Columns, result.Preview).Render()
	}

	_, err = fmt.Fprintf(w, "size: %s\n", humanize.Bytes(uint64(result.Bytes)))
	return err
}

func previewTable(w io.Writer, header []string, rows [][]string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader(header)
	table.AppendBulk(rows)
	return table
}
