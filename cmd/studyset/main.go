// Command studyset inspects, converts and publishes meta-analytic datasets.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/hupe1980/studyset"
	"github.com/hupe1980/studyset/blobstore"
	"github.com/hupe1980/studyset/internal/config"
	"github.com/hupe1980/studyset/prommetrics"
)

const version = "0.1.0"

const usage = `studyset - meta-analytic dataset tool

Usage:
  studyset [flags] <command> [command flags] [args]

Commands:
  info <dataset>               Print study and availability counts
  select [-req|-alg] <dataset> Print the IDs of studies with the required data
  convert <in> <out>           Convert between JSON and snapshot files
  ingest <csv> <out>           Build a dataset from a NeuroVault image table
  verify <dataset>             Report image references missing from the store
  push <dataset>               Publish a dataset snapshot to the store
  pull <out>                   Fetch the latest (or a named) snapshot
  list                         List published snapshots
  prune                        Delete all snapshots but the current one

Output format follows the file suffix: *.json[.gz|.zst] is structured JSON,
anything else a binary snapshot compressed by suffix (.zst, .lz4, *z).

Environment:
  STUDYSET_BACKEND         local (default), s3 or minio
  STUDYSET_LOCAL_ROOT      root directory of the local store (./data)
  STUDYSET_BUCKET          bucket for s3 and minio
  STUDYSET_PREFIX          key prefix inside the bucket
  STUDYSET_REGION          AWS region
  STUDYSET_ENDPOINT        S3-compatible or MinIO endpoint
  STUDYSET_DDB_TABLE       DynamoDB table for conditional CURRENT updates on s3
  STUDYSET_ACCESS_KEY      MinIO access key
  STUDYSET_SECRET_KEY      MinIO secret key
  STUDYSET_SECURE          use TLS for MinIO (true)
  STUDYSET_SNAPSHOT_EXT    suffix of published snapshots (.snap.zst)
  STUDYSET_CODEC           json or go-json (go-json)
  STUDYSET_LOG_LEVEL       debug, info, warn or error (info)
  STUDYSET_LOG_FORMAT      text or json (text)
  STUDYSET_VERIFY_CONCURRENCY  concurrent image checks (8)
  STUDYSET_VERIFY_RATE     image checks per second, 0 for unlimited (0)
  STUDYSET_CACHE_BYTES     block cache size for remote reads, 0 disables (0)

Flags:
`

func main() {
	envFile := flag.String("env", ".env", "Path to a .env file")
	metricsFile := flag.String("metrics-file", "", "Write Prometheus metrics to this textfile on exit")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("studyset %s\n", version)
		return
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(cfg, os.Stdout, os.Stderr)
	err = a.run(ctx, flag.Args())
	if *metricsFile != "" {
		if werr := a.metrics.WriteTextfile(*metricsFile); werr != nil {
			fmt.Fprintf(os.Stderr, "studyset: write metrics: %v\n", werr)
		}
	}
	if errors.Is(err, errUsage) {
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		stop()
		fatalf("%v", err)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "studyset: "+format+"\n", args...)
	os.Exit(1)
}

var errUsage = errors.New("usage")

type app struct {
	cfg     config.Config
	stdout  io.Writer
	stderr  io.Writer
	logger  *studyset.Logger
	metrics *prommetrics.Collector

	// openStore is replaced in tests.
	openStore func(context.Context) (blobstore.BlobStore, error)
}

func newApp(cfg config.Config, stdout, stderr io.Writer) *app {
	logger := studyset.NewTextLogger(cfg.LogLevel)
	if cfg.LogFormat == "json" {
		logger = studyset.NewJSONLogger(cfg.LogLevel)
	}
	a := &app{
		cfg:     cfg,
		stdout:  stdout,
		stderr:  stderr,
		logger:  logger,
		metrics: prommetrics.NewCollector(),
	}
	a.openStore = a.dialStore
	return a
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, args := args[0], args[1:]
	switch cmd {
	case "info":
		return a.info(args)
	case "select":
		return a.selectIDs(args)
	case "convert":
		return a.convert(args)
	case "ingest":
		return a.ingest(args)
	case "verify":
		return a.verify(ctx, args)
	case "push":
		return a.push(ctx, args)
	case "pull":
		return a.pull(ctx, args)
	case "list":
		return a.list(ctx, args)
	case "prune":
		return a.prune(ctx, args)
	case "help":
		return errUsage
	default:
		return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
	}
}
