package kaggle

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	testutils "github.com/diwise/service-chassis/pkg/test/http"
	"github.com/diwise/service-chassis/pkg/test/http/expects"
	"github.com/diwise/service-chassis/pkg/test/http/response"
	"github.com/klauspost/compress/zip"

	"github.com/matryer/is"
)

var Expects = testutils.Expects
var Returns = testutils.Returns
var anyInput = expects.AnyInput
var method = expects.RequestMethod
var path = expects.RequestPath

func TestDownloadExtractsArchive(t *testing.T) {
	is := is.New(t)

	archive := zipArchive(t, map[string]string{
		"pokemonDB_dataset.json": `[{"name":"bulbasaur"}]`,
		"images/readme.txt":      "images go here",
	})

	s := testutils.NewMockServiceThat(
		Expects(
			is,
			method(http.MethodGet),
			path("/api/v1/datasets/download/owner/pokemon-library"),
		),
		Returns(
			response.ContentType("application/zip"),
			response.Code(http.StatusOK),
			response.Body(archive),
		),
	)
	defer s.Close()

	dir := filepath.Join(t.TempDir(), "dataset")
	c := NewClient(s.URL(), Credentials("user", "key"))

	result, err := c.Download(context.Background(), "owner/pokemon-library", dir)
	is.NoErr(err)
	is.Equal(result, dir)

	b, err := os.ReadFile(filepath.Join(dir, "pokemonDB_dataset.json"))
	is.NoErr(err)
	is.Equal(string(b), `[{"name":"bulbasaur"}]`)

	b, err = os.ReadFile(filepath.Join(dir, "images", "readme.txt"))
	is.NoErr(err)
	is.Equal(string(b), "images go here")

	leftovers, _ := filepath.Glob(filepath.Join(dir, "download-*.zip"))
	is.Equal(len(leftovers), 0) // temporary archive should be removed
}

func TestDownloadMapsStatusCodes(t *testing.T) {
	is := is.New(t)

	codes := map[int]error{
		http.StatusUnauthorized:        ErrUnauthorized,
		http.StatusForbidden:           ErrUnauthorized,
		http.StatusNotFound:            ErrDatasetNotFound,
		http.StatusInternalServerError: ErrBadResponse,
	}

	for code, expected := range codes {
		s := testutils.NewMockServiceThat(
			Expects(is, anyInput()),
			Returns(response.Code(code)),
		)

		c := NewClient(s.URL())
		_, err := c.Download(context.Background(), "owner/slug", t.TempDir())
		s.Close()

		is.True(errors.Is(err, expected))
	}
}

func TestDownloadRejectsMalformedDatasetID(t *testing.T) {
	is := is.New(t)

	c := NewClient("http://127.0.0.1:1")

	for _, id := range []string{"", "owner", "owner/", "/slug", "a/b/c"} {
		_, err := c.Download(context.Background(), id, t.TempDir())
		is.True(errors.Is(err, ErrInvalidDataset))
	}
}

func TestExtractRefusesEntriesOutsideDestination(t *testing.T) {
	is := is.New(t)

	dir := t.TempDir()
	archive := filepath.Join(dir, "evil.zip")
	err := os.WriteFile(archive, zipArchive(t, map[string]string{"../evil.txt": "boom"}), 0644)
	is.NoErr(err)

	dest := filepath.Join(dir, "out")
	_, err = extract(archive, dest)
	is.True(errors.Is(err, ErrArchive))

	_, statErr := os.Stat(filepath.Join(dir, "evil.txt"))
	is.True(os.IsNotExist(statErr)) // entry should not have been written
}

func TestSaveArchiveSeparatesLocalAndRemoteFailures(t *testing.T) {
	is := is.New(t)

	dir := t.TempDir()

	f, err := os.CreateTemp(dir, "download-*.zip")
	is.NoErr(err)
	err = saveArchive(f, failingReader{})
	is.True(errors.Is(err, ErrBadResponse))

	f, err = os.CreateTemp(dir, "download-*.zip")
	is.NoErr(err)
	is.NoErr(f.Close())
	err = saveArchive(f, bytes.NewReader([]byte("PK")))
	is.True(errors.Is(err, ErrArchive)) // writing to the local file failed
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func zipArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()

	buf := &bytes.Buffer{}
	w := zip.NewWriter(buf)

	for name, content := range files {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("failed to add %s to archive: %s", name, err.Error())
		}
		f.Write([]byte(content))
	}

	if err := w.Close(); err != nil {
		t.Fatalf("failed to close archive: %s", err.Error())
	}

	return buf.Bytes()
}
