package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hangxie/csv-browser/service"
)

// WebUICmd is a kong command for serving Web UI
type WebUICmd struct {
	URI  string `arg:"" predictor:"file" help:"Path or http(s) URL of the CSV source."`
	Addr string `short:"a" default:":8080" env:"CSVB_ADDR" help:"Address to listen on (default :8080)."`
	SourceOption
	LogOption
}

// Run starts the Web UI server
func (w WebUICmd) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, closeLog, err := newService(ctx, w.URI, w.SourceOption, w.LogOption)
	if err != nil {
		return err
	}
	defer closeLog()

	// Start the web UI server with HTML interface
	return service.StartWebUIServer(ctx, svc, w.Addr)
}
