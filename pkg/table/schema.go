package table

import (
	"fmt"
	"strings"

	"github.com/diwise/dataset-converter/pkg/table/errors"
)

// SchemaMode decides how the column set is derived from the records
type SchemaMode int

const (
	// SchemaStrict takes the columns from the first record and requires every
	// other record to have exactly the same keys.
	SchemaStrict SchemaMode = iota
	// SchemaUnion takes the union of all keys in first-seen order.
	SchemaUnion
)

func (m SchemaMode) String() string {
	if m == SchemaUnion {
		return "union"
	}
	return "strict"
}

func ParseSchemaMode(s string) (SchemaMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return SchemaStrict, nil
	case "union":
		return SchemaUnion, nil
	}
	return SchemaStrict, fmt.Errorf("unknown schema mode %q (expected strict or union)", s)
}

// InferColumns returns the ordered column names for ds. An empty dataset has
// no columns, while records that all lack fields are a parse error.
func InferColumns(ds Dataset, mode SchemaMode) ([]string, error) {
	if len(ds) == 0 {
		return []string{}, nil
	}

	var columns []string

	if mode == SchemaUnion {
		columns = unionOfKeys(ds)
	} else {
		columns = ds[0].Keys()

		for i := 1; i < len(ds); i++ {
			if err := sameKeys(columns, ds[i], i); err != nil {
				return nil, err
			}
		}
	}

	if len(columns) == 0 {
		return nil, errors.NewParseError(
			fmt.Sprintf("%d records hold no fields, there is nothing to tabulate", len(ds)), nil,
		)
	}

	return columns, nil
}

func unionOfKeys(ds Dataset) []string {
	seen := map[string]struct{}{}
	columns := make([]string, 0, ds[0].Len())

	for _, r := range ds {
		for _, k := range r.Keys() {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			columns = append(columns, k)
		}
	}

	return columns
}

func sameKeys(columns []string, r Record, index int) error {
	missing := []string{}
	for _, c := range columns {
		if _, ok := r.Get(c); !ok {
			missing = append(missing, c)
		}
	}

	extra := []string{}
	if r.Len() != len(columns)-len(missing) {
		expected := make(map[string]struct{}, len(columns))
		for _, c := range columns {
			expected[c] = struct{}{}
		}
		for _, k := range r.Keys() {
			if _, ok := expected[k]; !ok {
				extra = append(extra, k)
			}
		}
	}

	if len(missing) == 0 && len(extra) == 0 {
		return nil
	}

	parts := []string{}
	if len(missing) > 0 {
		parts = append(parts, "missing "+quoteAll(missing))
	}
	if len(extra) > 0 {
		parts = append(parts, "unexpected "+quoteAll(extra))
	}

	return errors.NewSchemaError(
		fmt.Sprintf("record %d does not match the keys of record 0: %s", index, strings.Join(parts, ", ")),
	)
}

func quoteAll(keys []string) string {
	quoted := make([]string, len(keys))
	for i, k := range keys {
		quoted[i] = fmt.Sprintf("%q", k)
	}
	return strings.Join(quoted, ", ")
}
