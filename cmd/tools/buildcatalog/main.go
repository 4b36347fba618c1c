package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/noah-isme/quotecalc/internal/catalog"
	"github.com/noah-isme/quotecalc/internal/obs"
)

func main() {
	_ = godotenv.Load()
	logger := obs.NewLoggerTo(os.Stderr, "console", "info")
	if err := run(os.Args[1:], os.Stdout, logger); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		logger.Fatal().Err(err).Msg("build catalog")
	}
}

// run reads a pricing spreadsheet and writes the item list as JSON to -out, or to
// stdout when -out is "-".
func run(args []string, stdout io.Writer, logger zerolog.Logger) error {
	fs := flag.NewFlagSet("buildcatalog", flag.ContinueOnError)
	in := fs.String("in", "pricing.xlsx", "spreadsheet to read (.xlsx, .csv or .json)")
	out := fs.String("out", "data/pricing.json", `output path, "-" for stdout`)
	if err := fs.Parse(args); err != nil {
		return err
	}

	items, err := catalog.LoadFile(*in)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}
	data = append(data, '\n')

	if *out == "-" {
		if _, err := stdout.Write(data); err != nil {
			return err
		}
	} else {
		if dir := filepath.Dir(*out); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		if err := os.WriteFile(*out, data, 0o644); err != nil {
			return err
		}
	}

	logger.Info().Str("in", *in).Str("out", *out).Int("items", len(items)).Msg("catalog built")
	return nil
}
