package converter

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/diwise/dataset-converter/pkg/table"
	yaml "gopkg.in/yaml.v2"
)

const DefaultPreviewRows int = 5

type DatasetConfig struct {
	ID  string `yaml:"id"`
	Dir string `yaml:"dir"`
}

type Config struct {
	Schema    string        `yaml:"schema"`
	Nested    string        `yaml:"nested"`
	Delimiter string        `yaml:"delimiter"`
	CRLF      bool          `yaml:"crlf"`
	Index     bool          `yaml:"index"`
	Preview   int           `yaml:"preview"`
	Dataset   DatasetConfig `yaml:"dataset"`
}

func DefaultConfig() *Config {
	return &Config{
		Schema:    table.SchemaStrict.String(),
		Nested:    table.NestedReject.String(),
		Delimiter: ",",
		Preview:   DefaultPreviewRows,
	}
}

// LoadConfiguration reads a yaml document on top of DefaultConfig. Keys left
// out of the document keep their default values.
func LoadConfiguration(data io.Reader) (*Config, error) {

	buf, err := io.ReadAll(data)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	err = yaml.Unmarshal(buf, cfg)

	return cfg, err
}

// Options validates the configuration and turns it into converter options
func (c Config) Options() (Options, error) {
	schema, err := table.ParseSchemaMode(c.Schema)
	if err != nil {
		return Options{}, err
	}

	nested, err := table.ParseNestedPolicy(c.Nested)
	if err != nil {
		return Options{}, err
	}

	delimiter, err := parseDelimiter(c.Delimiter)
	if err != nil {
		return Options{}, err
	}

	if c.Preview < 0 {
		return Options{}, fmt.Errorf("preview rows must not be negative (got %d)", c.Preview)
	}

	return Options{
		Schema:    schema,
		Nested:    nested,
		Delimiter: delimiter,
		CRLF:      c.CRLF,
		Index:     c.Index,
		Preview:   c.Preview,
	}, nil
}

func parseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "":
		return ',', nil
	case "tab", `\t`:
		return '\t', nil
	}

	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) {
		return 0, fmt.Errorf("delimiter must be a single character (got %q)", s)
	}

	if err := table.ValidDelimiter(r); err != nil {
		return 0, err
	}

	return r, nil
}
