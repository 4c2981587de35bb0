package dataset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
)

const DefaultDatasetID string = "divyanshusingh369/complete-pokemon-library-32k-images-and-csv"

type Fetcher interface {
	Download(ctx context.Context, dataset, destDir string) (string, error)
}

// EnsureLocal downloads datasetID into destDir unless path already exists.
// An empty destDir means the directory of path. It reports whether a download
// took place.
func EnsureLocal(ctx context.Context, fetcher Fetcher, datasetID, path, destDir string) (bool, error) {
	log := logging.GetFromContext(ctx)

	_, err := os.Stat(path)
	if err == nil {
		log.Debug("input already present, skipping download", slog.String("path", path))
		return false, nil
	}

	if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("failed to check %s: %w", path, err)
	}

	if datasetID == "" {
		return false, nil
	}

	if destDir == "" {
		destDir = filepath.Dir(path)
	}

	_, err = fetcher.Download(ctx, datasetID, destDir)
	if err != nil {
		return false, fmt.Errorf("failed to download dataset %s: %w", datasetID, err)
	}

	if _, err := os.Stat(path); err != nil {
		log.Warn("downloaded dataset does not contain the expected input", slog.String("path", path))
	}

	return true, nil
}
