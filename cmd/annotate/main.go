package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/apex/log"
	"github.com/google/uuid"

	"plantapp/common"
	"plantapp/config"
	"plantapp/labels"
	"plantapp/service"
)

const source = "cli"

type imageResult struct {
	Image     string         `json:"image"`
	Labels    []labels.Label `json:"labels"`
	Lines     []string       `json:"lines,omitempty"`
	ErrorKind string         `json:"error_kind,omitempty"`
	Error     string         `json:"error,omitempty"`
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("annotate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	compact := fs.Bool("compact", false, "use the compact rendering, \"Plant (99%)\"")
	asJSON := fs.Bool("json", false, "print one JSON object per image")
	maxResults := fs.Int("max-results", 0, "maximum number of labels per image (0 = service default)")
	stub := fs.Bool("stub", false, "use the offline stub instead of Google Cloud Vision")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: annotate [flags] <image>...  (use - to read an image from stdin)")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	cfg := config.Load()
	if os.Getenv("LOG_LEVEL") == "" {
		cfg.LogLevel = "warn"
	}
	if *stub {
		cfg.VisionProvider = "stub"
	}
	if *maxResults > 0 {
		cfg.VisionMaxResults = *maxResults
	}
	if err := common.ConfigureLogging(cfg.LogLevel, "cli", stderr); err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	svc, release, err := service.Build(ctx, cfg)
	if err != nil {
		fmt.Fprintln(stderr, labels.ErrorText(err))
		return 1
	}
	defer func() {
		if err := release(); err != nil {
			log.WithError(err).Warn("Failed to release vision resources")
		}
	}()

	policy := labels.Detailed
	if *compact {
		policy = labels.Compact
	}
	enc := json.NewEncoder(stdout)

	status := 0
	for i, path := range fs.Args() {
		result, err := annotate(ctx, svc, path, stdin)
		if err != nil {
			status = 1
		}

		if *asJSON {
			out := imageResult{Image: path, Labels: result}
			if err != nil {
				out.ErrorKind = labels.KindOf(err).String()
				out.Error = labels.Message(err)
			} else {
				out.Lines = policy.Items(result)
			}
			if out.Labels == nil {
				out.Labels = []labels.Label{}
			}
			if encErr := enc.Encode(out); encErr != nil {
				fmt.Fprintln(stderr, encErr)
				return 1
			}
			continue
		}

		if fs.NArg() > 1 {
			if i > 0 {
				fmt.Fprintln(stdout)
			}
			fmt.Fprintf(stdout, "== %s ==\n", path)
		}
		text := policy.Display(result, err)
		if err != nil {
			fmt.Fprintln(stderr, text)
			continue
		}
		fmt.Fprint(stdout, text)
		if !strings.HasSuffix(text, "\n") {
			fmt.Fprintln(stdout)
		}
	}
	return status
}

func annotate(ctx context.Context, svc *service.Service, path string, stdin io.Reader) ([]labels.Label, error) {
	req := service.Request{ID: uuid.NewString(), Source: source, Filename: filepath.Base(path)}
	if path != "-" {
		return svc.LabelFile(ctx, req, path)
	}

	image, err := io.ReadAll(stdin)
	if err != nil {
		return nil, labels.Transport("read", err)
	}
	req.Filename = "stdin"
	req.Image = image
	return svc.Label(ctx, req)
}
