package main

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	testutils "github.com/diwise/service-chassis/pkg/test/http"
	"github.com/diwise/service-chassis/pkg/test/http/expects"
	"github.com/diwise/service-chassis/pkg/test/http/response"
	"github.com/klauspost/compress/zip"

	"github.com/matryer/is"
)

var Expects = testutils.Expects
var Returns = testutils.Returns
var method = expects.RequestMethod
var path = expects.RequestPath

func TestConvertCommand(t *testing.T) {
	is, dir := setupTest(t)

	input := writeFile(t, dir, "in.json", `[{"a":1,"b":"x"}, {"a":2,"b":"y"}]`)
	output := filepath.Join(dir, "out.csv")

	stdout, err := run(t, "convert", input, output)
	is.NoErr(err)
	is.Equal(exitCode(err), 0)

	is.Equal(readFile(t, output), "a,b\n1,x\n2,y\n")
	is.True(strings.Contains(stdout, "dimensions: 2 records x 2 columns"))
}

func TestConvertCommandDefaultsOutputPath(t *testing.T) {
	is, dir := setupTest(t)

	input := writeFile(t, dir, "pokemon.json", `[{"name":"O'Brien, J."}]`)

	_, err := run(t, "convert", input)
	is.NoErr(err)

	is.Equal(readFile(t, filepath.Join(dir, "pokemon_converted.csv")), "name\n\"O'Brien, J.\"\n")
}

func TestConvertCommandFlagsOverrideConfigFile(t *testing.T) {
	is, dir := setupTest(t)

	cfg := writeFile(t, dir, "config.yaml", "schema: union\ndelimiter: \";\"\nindex: true\n")
	input := writeFile(t, dir, "in.json", `[{"a":1},{"b":2}]`)
	output := filepath.Join(dir, "out.csv")

	_, err := run(t, "convert", "--config", cfg, "--index=false", input, output)
	is.NoErr(err)

	is.Equal(readFile(t, output), "a;b\n1;\n;2\n")
}

func TestConvertCommandExitCodes(t *testing.T) {
	is, dir := setupTest(t)

	cases := map[string]struct {
		document string
		args     []string
		code     int
	}{
		"parse":       {`[{"a":1}`, nil, 3},
		"schema":      {`[{"a":1},{"b":2}]`, nil, 4},
		"nested":      {`[{"a":{"b":1}}]`, nil, 5},
		"no fields":   {`[{},{}]`, nil, 3},
		"delimiter":   {`[{"a":1}]`, []string{"--delimiter", `"`}, 1},
		"bad setting": {`[{"a":1}]`, []string{"--schema", "loose"}, 1},
	}

	for name, c := range cases {
		input := writeFile(t, dir, name+".json", c.document)

		args := append([]string{"convert"}, c.args...)
		args = append(args, input, filepath.Join(dir, name+".csv"))

		_, err := run(t, args...)
		is.True(err != nil)
		is.Equal(exitCode(err), c.code)
	}

	_, err := run(t, "convert", filepath.Join(dir, "missing.json"), filepath.Join(dir, "missing.csv"))
	is.Equal(exitCode(err), 2)

	_, statErr := os.Stat(filepath.Join(dir, "missing.csv"))
	is.True(os.IsNotExist(statErr)) // no output for a missing input

	input := writeFile(t, dir, "ok.json", `[{"a":1}]`)
	_, err = run(t, "convert", input, filepath.Join(dir, "no-such-dir", "out.csv"))
	is.Equal(exitCode(err), 6)
}

func TestConvertCommandDownloadsMissingInput(t *testing.T) {
	is, dir := setupTest(t)

	s := testutils.NewMockServiceThat(
		Expects(
			is,
			method(http.MethodGet),
			path("/api/v1/datasets/download/owner/pokemon"),
		),
		Returns(
			response.Code(http.StatusOK),
			response.Body(zipArchive(t, "pokemonDB_dataset.json", `[{"name":"bulbasaur","hp":45}]`)),
		),
	)
	defer s.Close()

	t.Setenv("KAGGLE_API_URL", s.URL())

	input := filepath.Join(dir, "pokemonDB_dataset.json")
	output := filepath.Join(dir, "out.csv")

	_, err := run(t, "convert", "--dataset", "owner/pokemon", input, output)
	is.NoErr(err)

	is.Equal(readFile(t, output), "name,hp\nbulbasaur,45\n")
}

func TestFetchCommand(t *testing.T) {
	is, dir := setupTest(t)

	s := testutils.NewMockServiceThat(
		Expects(
			is,
			method(http.MethodGet),
			path("/api/v1/datasets/download/owner/pokemon"),
		),
		Returns(
			response.Code(http.StatusOK),
			response.Body(zipArchive(t, "data.json", `[]`)),
		),
	)
	defer s.Close()

	t.Setenv("KAGGLE_API_URL", s.URL())

	target := filepath.Join(dir, "dataset")

	stdout, err := run(t, "fetch", "--dir", target, "owner/pokemon")
	is.NoErr(err)
	is.Equal(stdout, "dataset files extracted to "+target+"\n")
	is.Equal(readFile(t, filepath.Join(target, "data.json")), "[]")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	out := &bytes.Buffer{}
	err := newApp(out, "test").RunContext(context.Background(), append([]string{appName}, args...))

	return out.String(), err
}

func setupTest(t *testing.T) (*is.I, string) {
	return is.New(t), t.TempDir()
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %s", p, err.Error())
	}

	return p
}

func readFile(t *testing.T, p string) string {
	t.Helper()

	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("failed to read %s: %s", p, err.Error())
	}

	return string(b)
}

func zipArchive(t *testing.T, name, content string) []byte {
	t.Helper()

	buf := &bytes.Buffer{}
	w := zip.NewWriter(buf)

	f, err := w.Create(name)
	if err != nil {
		t.Fatalf("failed to create archive entry: %s", err.Error())
	}
	f.Write([]byte(content))

	if err := w.Close(); err != nil {
		t.Fatalf("failed to close archive: %s", err.Error())
	}

	return buf.Bytes()
}
