package main

import (
	"context"
	"errors"
	"os"

	tableerrors "github.com/diwise/dataset-converter/pkg/table/errors"
	"github.com/diwise/service-chassis/pkg/infrastructure/buildinfo"
	"github.com/diwise/service-chassis/pkg/infrastructure/env"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/google/uuid"
)

const (
	appName string = "dataset-converter"
)

func main() {
	appVersion := buildinfo.SourceVersion()
	logFormat := env.GetVariableOrDefault(context.Background(), "LOG_FORMAT", "json")

	ctx, log, cleanup := o11y.Init(context.Background(), appName, appVersion, logFormat)
	defer cleanup()

	ctx = logging.NewContextWithLogger(ctx, log, "run_id", uuid.NewString())

	err := newApp(os.Stdout, appVersion).RunContext(ctx, os.Args)
	if err != nil {
		logging.GetFromContext(ctx).Error("dataset-converter failed", "err", err.Error())
		cleanup()
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, tableerrors.ErrNotFound):
		return 2
	case errors.Is(err, tableerrors.ErrParse):
		return 3
	case errors.Is(err, tableerrors.ErrSchema):
		return 4
	case errors.Is(err, tableerrors.ErrUnsupportedType):
		return 5
	case errors.Is(err, tableerrors.ErrIO):
		return 6
	}
	return 1
}
