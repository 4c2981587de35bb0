package table

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"
)

// Table is a header row plus rendered data rows
type Table struct {
	Header []string
	Rows   [][]string
}

// NewTable renders ds under the given columns. With index set a leading,
// unnamed column holds each record's 0-based position.
func NewTable(ds Dataset, columns []string, index bool) Table {
	t := Table{
		Header: columns,
		Rows:   ds.Rows(columns),
	}

	if !index {
		return t
	}

	t.Header = append([]string{""}, columns...)
	for i, row := range t.Rows {
		t.Rows[i] = append([]string{strconv.Itoa(i)}, row...)
	}

	return t
}

// Len is the number of data rows
func (t Table) Len() int {
	return len(t.Rows)
}

var ErrInvalidDelimiter = fmt.Errorf("invalid delimiter")

// ValidDelimiter reports whether r can separate CSV fields
func ValidDelimiter(r rune) error {
	if r == 0 || r == '"' || r == '\r' || r == '\n' || !utf8.ValidRune(r) || r == utf8.RuneError {
		return fmt.Errorf("%q cannot be used as delimiter (%w)", r, ErrInvalidDelimiter)
	}
	return nil
}

type WriterOption func(*csv.Writer)

func Delimiter(r rune) WriterOption {
	return func(w *csv.Writer) {
		w.Comma = r
	}
}

func CRLF(enabled bool) WriterOption {
	return func(w *csv.Writer) {
		w.UseCRLF = enabled
	}
}

// WriteCSV writes the header followed by every row. A table without columns
// produces no output at all.
func WriteCSV(out io.Writer, t Table, options ...WriterOption) error {
	if len(t.Header) == 0 {
		return nil
	}

	buf := bufio.NewWriter(out)
	w := csv.NewWriter(buf)
	for _, option := range options {
		option(w)
	}

	if err := ValidDelimiter(w.Comma); err != nil {
		return err
	}

	if err := writeRow(w, buf, t.Header); err != nil {
		return err
	}

	for _, row := range t.Rows {
		if err := writeRow(w, buf, row); err != nil {
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	return buf.Flush()
}

// writeRow quotes a lone empty field, since csv readers skip blank lines
func writeRow(w *csv.Writer, buf *bufio.Writer, row []string) error {
	if len(row) != 1 || row[0] != "" {
		return w.Write(row)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	line := "\"\"\n"
	if w.UseCRLF {
		line = "\"\"\r\n"
	}

	_, err := buf.WriteString(line)
	return err
}
