package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hangxie/csv-browser/service"
)

// ServeCmd is a kong command for serving HTTP API
type ServeCmd struct {
	URI  string `arg:"" predictor:"file" help:"Path or http(s) URL of the CSV source."`
	Addr string `short:"a" default:":8080" env:"CSVB_ADDR" help:"Address to listen on (default :8080)."`
	SourceOption
	LogOption
}

// newService loads the source into a grid service
func newService(ctx context.Context, uri string, so SourceOption, lo LogOption) (*service.GridService, func(), error) {
	logger, closeLog, err := lo.logger(os.Stderr)
	if err != nil {
		return nil, nil, err
	}

	grid, err := so.newGrid(logger)
	if err != nil {
		closeLog()
		return nil, nil, fmt.Errorf("failed to create service: %w", err)
	}

	svc, err := service.NewGridService(ctx, so.source(uri), grid, logger)
	if err != nil {
		closeLog()
		return nil, nil, fmt.Errorf("failed to create service: %w", err)
	}
	return svc, closeLog, nil
}

// Run starts the HTTP API server
func (s ServeCmd) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, closeLog, err := newService(ctx, s.URI, s.SourceOption, s.LogOption)
	if err != nil {
		return err
	}
	defer closeLog()

	return service.StartServer(ctx, svc, s.Addr)
}
