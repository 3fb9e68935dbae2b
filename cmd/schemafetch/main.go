// Command schemafetch performs a single HTTP request through the validating
// pipeline, optionally checking the request and response bodies against
// JSON Schema files. It is a small curl-like harness for the library.
//
// Usage:
//
//	schemafetch -X POST -d '{"name":"tibbs"}' \
//	    --request-schema pet.schema.json \
//	    --response-schema pet.schema.json \
//	    https://api.example.com/pets
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
	"github.com/segmentio/encoding/json"

	"github.com/rmosel/schemafetch"
	"github.com/rmosel/schemafetch/schema"
	"github.com/rmosel/schemafetch/schema/jsonschema"
)

type cli struct {
	Method         string            `short:"X" default:"GET" help:"HTTP method."`
	Header         map[string]string `short:"H" help:"Request headers as name=value pairs."`
	Data           string            `short:"d" help:"Request body. Sent as a raw string."`
	JSON           bool              `short:"j" help:"Treat the body as JSON (sets content-type)."`
	RequestSchema  string            `type:"existingfile" help:"JSON Schema file for the request body."`
	ResponseSchema string            `type:"existingfile" help:"JSON Schema file for the response body."`
	HeaderMode     string            `default:"preserve" enum:"preserve,strict" help:"Header validation mode."`
	Timeout        time.Duration     `default:"30s" help:"Overall request timeout."`
	Verbose        bool              `short:"v" help:"Enable debug logging."`
	URL            string            `arg:"" help:"Target URL."`

	Version kong.VersionFlag `help:"Print version and exit."`
}

func main() {
	var args cli
	kong.Parse(&args,
		kong.Name("schemafetch"),
		kong.Description("Perform an HTTP request with optional JSON Schema validation."),
		kong.Vars{"version": schemafetch.BuildInfo()},
	)

	logger := newLogger(args.Verbose)
	if err := run(&args, logger); err != nil {
		logger.Fatal().Err(err).Msg("request failed")
	}
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

func run(args *cli, logger zerolog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), args.Timeout)
	defer cancel()

	mode := schemafetch.HeaderModePreserve
	if args.HeaderMode == "strict" {
		mode = schemafetch.HeaderModeStrict
	}

	client, err := schemafetch.New(jsonschema.New(), schemafetch.WithHeaderMode(mode))
	if err != nil {
		return err
	}

	req := schemafetch.Request{
		Method:  strings.ToUpper(args.Method),
		URL:     args.URL,
		Headers: schemafetch.HeaderMap(args.Header),
	}

	if args.Data != "" {
		req.Body = schemafetch.String(args.Data)
		if args.JSON && args.Header["Content-Type"] == "" {
			headers := map[string]string{"Content-Type": "application/json"}
			for k, v := range args.Header {
				headers[k] = v
			}
			req.Headers = schemafetch.HeaderMap(headers)
		}
	}

	if args.RequestSchema != "" {
		resolved, err := loadSchema(args.RequestSchema)
		if err != nil {
			return err
		}
		req.Validate.RequestBody = resolved
		logger.Debug().Str("file", args.RequestSchema).Msg("request schema loaded")
	}
	if args.ResponseSchema != "" {
		resolved, err := loadSchema(args.ResponseSchema)
		if err != nil {
			return err
		}
		req.Validate.ResponseBody = resolved
		logger.Debug().Str("file", args.ResponseSchema).Msg("response schema loaded")
	}

	start := time.Now()
	resp, err := client.Do(ctx, req)
	if err != nil {
		return err
	}

	logger.Info().
		Int("status", resp.StatusCode()).
		Dur("elapsed", time.Since(start)).
		Str("content-type", resp.Header().Get("Content-Type")).
		Msg("response received")

	if args.ResponseSchema != "" {
		body, err := resp.JSON()
		if err != nil {
			return err
		}
		logger.Debug().Msg("response body passed validation")
		return printJSON(body)
	}

	body, err := resp.Bytes()
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(body)
	return err
}

func loadSchema(path string) (schema.Schema, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", path, err)
	}
	resolved, err := jsonschema.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", path, err)
	}
	return resolved, nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, string(data))
	return err
}
