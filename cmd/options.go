package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/text/language"

	"github.com/hangxie/csv-browser/model"
	"github.com/hangxie/csv-browser/service"
)

// SourceOption holds the flags shared by every command that loads a dataset
type SourceOption struct {
	Catalog string            `short:"c" predictor:"file" env:"CSVB_CATALOG" help:"YAML file mapping column names to types (text, number, category)."`
	Types   map[string]string `short:"t" name:"type" env:"CSVB_TYPES" help:"Column type, e.g. --type pop=number; overrides the catalog file."`
	Locale  string            `default:"und" env:"CSVB_LOCALE" help:"BCP 47 language tag used to sort text columns (default und)."`
	Timeout time.Duration     `default:"30s" env:"CSVB_TIMEOUT" help:"Timeout for reading the source (default 30s)."`
}

// catalog merges the catalog file with the --type overrides
func (o SourceOption) catalog() (model.TypeCatalog, error) {
	catalog := model.TypeCatalog{}
	if o.Catalog != "" {
		fromFile, err := model.LoadCatalog(o.Catalog)
		if err != nil {
			return nil, err
		}
		catalog = fromFile
	}

	overrides, err := model.NewTypeCatalog(o.Types)
	if err != nil {
		return nil, fmt.Errorf("invalid --type: %w", err)
	}
	return catalog.Merge(overrides), nil
}

func (o SourceOption) locale() (language.Tag, error) {
	if o.Locale == "" {
		return language.Und, nil
	}
	tag, err := language.Parse(o.Locale)
	if err != nil {
		return language.Und, fmt.Errorf("%w %q: %w", ErrInvalidLocale, o.Locale, err)
	}
	return tag, nil
}

// newGrid creates an empty grid configured by the options
func (o SourceOption) newGrid(logger *slog.Logger) (*model.Grid, error) {
	catalog, err := o.catalog()
	if err != nil {
		return nil, err
	}
	tag, err := o.locale()
	if err != nil {
		return nil, err
	}
	return model.NewGrid(catalog, model.WithLocale(tag), model.WithLogger(logger)), nil
}

// source locates the dataset, remote sources are fetched with the configured timeout
func (o SourceOption) source(uri string) service.Source {
	return service.Source{
		URI:    uri,
		Client: &http.Client{Timeout: o.Timeout},
	}
}

// LogOption holds the logging flags
type LogOption struct {
	LogLevel  string `default:"info" enum:"debug,info,warn,error" env:"CSVB_LOG_LEVEL" help:"Log level: debug, info, warn or error (default info)."`
	LogFormat string `default:"text" enum:"text,json" env:"CSVB_LOG_FORMAT" help:"Log format: text or json (default text)."`
	LogFile   string `predictor:"file" env:"CSVB_LOG_FILE" help:"Append logs to this file."`
}

// logger builds the logger described by the options, writing to fallback when no
// log file is set. The returned function closes the log file.
func (o LogOption) logger(fallback io.Writer) (*slog.Logger, func(), error) {
	if o.LogFile == "" {
		return setupLogger(o.LogLevel, o.LogFormat, fallback), func() {}, nil
	}

	f, err := os.OpenFile(o.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return setupLogger(o.LogLevel, o.LogFormat, f), func() { _ = f.Close() }, nil
}
