package kaggle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"strings"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var ErrInvalidDataset = fmt.Errorf("invalid dataset")
var ErrUnauthorized = fmt.Errorf("unauthorized")
var ErrDatasetNotFound = fmt.Errorf("dataset not found")
var ErrRequest = fmt.Errorf("request error")
var ErrBadResponse = fmt.Errorf("bad response")
var ErrArchive = fmt.Errorf("archive error")

const DefaultBaseURL string = "https://www.kaggle.com"

// Client downloads dataset archives from the Kaggle public API
type Client interface {
	// Download fetches the archive of dataset ("owner/slug") and extracts it
	// into destDir, returning the directory holding the extracted files.
	Download(ctx context.Context, dataset, destDir string) (string, error)
}

func Credentials(username, key string) func(*kaggleClient) {
	return func(c *kaggleClient) {
		c.username = username
		c.key = key
	}
}

func Debug(enabled string) func(*kaggleClient) {
	return func(c *kaggleClient) {
		c.debug = (enabled == "true")
	}
}

func NewClient(baseURL string, options ...func(*kaggleClient)) Client {
	c := &kaggleClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		debug:   false,
	}

	for _, option := range options {
		option(c)
	}

	return c
}

const (
	TraceAttributeDataset string = "dataset"
)

var tracer = otel.Tracer("dataset-converter/kaggle-client")

type kaggleClient struct {
	baseURL  string
	username string
	key      string
	debug    bool
}

func (c kaggleClient) Download(ctx context.Context, dataset, destDir string) (string, error) {
	var err error

	ctx, span := tracer.Start(ctx, "download-dataset",
		trace.WithAttributes(attribute.String(TraceAttributeDataset, dataset)),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	owner, slug, err := splitDataset(dataset)
	if err != nil {
		return "", err
	}

	err = os.MkdirAll(destDir, 0755)
	if err != nil {
		err = fmt.Errorf("failed to create %s: %s (%w)", destDir, err.Error(), ErrArchive)
		return "", err
	}

	log := logging.GetFromContext(ctx).With(slog.String("dataset", dataset))
	log.Info("downloading dataset archive")

	archive, err := c.fetchArchive(ctx, c.baseURL+"/api/v1/datasets/download/"+url.PathEscape(owner)+"/"+url.PathEscape(slug), destDir)
	if err != nil {
		return "", err
	}
	defer os.Remove(archive)

	files, err := extract(archive, destDir)
	if err != nil {
		return "", err
	}

	log.Info("dataset extracted", slog.String("dir", destDir), slog.Int("files", files))

	return destDir, nil
}

func (c kaggleClient) fetchArchive(ctx context.Context, endpoint, destDir string) (string, error) {
	httpClient := http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %s (%w)", err.Error(), ErrRequest)
	}

	if c.username != "" {
		req.SetBasicAuth(c.username, c.key)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %s (%w)", err.Error(), ErrRequest)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if c.debug {
			reqbytes, _ := httputil.DumpRequest(req, false)
			respbytes, _ := httputil.DumpResponse(resp, false)

			log := logging.GetFromContext(ctx)
			log.Error("request failed", "request", string(reqbytes), "response", string(respbytes))
		}

		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return "", fmt.Errorf("unexpected response code %d (%w)", resp.StatusCode, ErrUnauthorized)
		case http.StatusNotFound:
			return "", fmt.Errorf("unexpected response code %d (%w)", resp.StatusCode, ErrDatasetNotFound)
		}

		return "", fmt.Errorf("unexpected response code %d (%w)", resp.StatusCode, ErrBadResponse)
	}

	f, err := os.CreateTemp(destDir, "download-*.zip")
	if err != nil {
		return "", fmt.Errorf("failed to create archive file: %s (%w)", err.Error(), ErrArchive)
	}

	if err = saveArchive(f, resp.Body); err != nil {
		os.Remove(f.Name())
		return "", err
	}

	return f.Name(), nil
}

// saveArchive copies body into f and closes it. Failing to read the body is
// a bad response, failing to write or close the file is an archive error.
func saveArchive(f *os.File, body io.Reader) error {
	_, err := io.Copy(f, body)
	closeErr := f.Close()

	var pathErr *fs.PathError
	if err != nil && !errors.As(err, &pathErr) {
		return fmt.Errorf("failed to read archive: %s (%w)", err.Error(), ErrBadResponse)
	}

	if err == nil {
		err = closeErr
	}

	if err != nil {
		return fmt.Errorf("failed to save archive: %s (%w)", err.Error(), ErrArchive)
	}

	return nil
}

func splitDataset(dataset string) (string, string, error) {
	owner, slug, found := strings.Cut(strings.TrimSpace(dataset), "/")
	if !found || owner == "" || slug == "" || strings.Contains(slug, "/") {
		return "", "", fmt.Errorf("dataset must be given as owner/slug, got %q (%w)", dataset, ErrInvalidDataset)
	}
	return owner, slug, nil
}
