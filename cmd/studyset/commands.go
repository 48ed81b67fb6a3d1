package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"maps"
	"os"
	"path"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/hupe1980/studyset"
	"github.com/hupe1980/studyset/catalog"
	"github.com/hupe1980/studyset/codec"
	"github.com/hupe1980/studyset/ingest"
	"github.com/hupe1980/studyset/metadata"
)

func (a *app) datasetOptions() []studyset.Option {
	opts := []studyset.Option{
		studyset.WithLogger(a.logger),
		studyset.WithMetricsCollector(a.metrics),
	}
	if c, ok := codec.ByName(a.cfg.Codec); ok {
		opts = append(opts, studyset.WithCodec(c))
	}
	return opts
}

func (a *app) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

// parseArgs parses fs and checks the number of positional arguments.
func parseArgs(fs *flag.FlagSet, args []string, n int) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%s: %w", fs.Name(), errUsage)
	}
	if fs.NArg() != n {
		return nil, fmt.Errorf("%s: want %d arguments, got %d: %w", fs.Name(), n, fs.NArg(), errUsage)
	}
	return fs.Args(), nil
}

func isJSONPath(p string) bool {
	return strings.Contains(path.Base(p), ".json")
}

func save(ds *studyset.Dataset, p string) error {
	if isJSONPath(p) {
		return ds.SaveJSON(p)
	}
	return ds.SaveSnapshot(p)
}

func (a *app) info(args []string) error {
	fs := a.flagSet("info")
	rest, err := parseArgs(fs, args, 1)
	if err != nil {
		return err
	}
	ds, err := studyset.Load(rest[0], a.datasetOptions()...)
	if err != nil {
		return err
	}

	st := ds.Stats()
	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "studies\t%d\n", st.Studies)
	fmt.Fprintf(tw, "space\t%s\n", ds.Space())
	fmt.Fprintf(tw, "coordinates\t%d\n", st.Coordinates)
	for _, label := range slices.Sorted(maps.Keys(st.Images)) {
		fmt.Fprintf(tw, "image %s\t%d\n", label, st.Images[label])
	}
	for _, field := range slices.Sorted(maps.Keys(st.Metadata)) {
		fmt.Fprintf(tw, "metadata %s\t%d\n", field, st.Metadata[field])
	}
	return tw.Flush()
}

func (a *app) selectIDs(args []string) error {
	fs := a.flagSet("select")
	req := fs.String("req", "", `Data requirement, e.g. "z AND sample_size"`)
	alg := fs.String("alg", "", "Estimator whose requirement to use: "+strings.Join(studyset.AlgorithmNames(), ", "))
	search := fs.String("search", "", "Free-text search (not supported)")
	var where filterFlag
	fs.Var(&where, "where", `Metadata filter "field:op:value", repeatable`)
	rest, err := parseArgs(fs, args, 1)
	if err != nil {
		return err
	}

	var algorithm studyset.Algorithm
	if *alg != "" {
		found, ok := studyset.AlgorithmByName(*alg)
		if !ok {
			return fmt.Errorf("unknown algorithm %q", *alg)
		}
		if *req != "" {
			return fmt.Errorf("select: -req and -alg are exclusive: %w", errUsage)
		}
		algorithm = found
		*req = found.Requirements()
	}

	ds, err := studyset.Load(rest[0], a.datasetOptions()...)
	if err != nil {
		return err
	}

	var studies []*studyset.Study
	if *search != "" {
		studies, err = ds.Get(*search, algorithm)
	} else {
		studies, err = ds.SelectWhere(*req, where.set())
	}
	if err != nil {
		return err
	}
	for _, s := range studies {
		fmt.Fprintln(a.stdout, s.ID)
	}
	return nil
}

func (a *app) convert(args []string) error {
	fs := a.flagSet("convert")
	rest, err := parseArgs(fs, args, 2)
	if err != nil {
		return err
	}
	ds, err := studyset.Load(rest[0], a.datasetOptions()...)
	if err != nil {
		return err
	}
	return save(ds, rest[1])
}

func (a *app) ingest(args []string) error {
	fs := a.flagSet("ingest")
	prefix := fs.String("prefix", "images", "Blob prefix for image paths")
	rest, err := parseArgs(fs, args, 2)
	if err != nil {
		return err
	}

	f, err := os.Open(rest[0])
	if err != nil {
		return err
	}
	defer f.Close()

	ds, report, err := ingest.NeuroVaultCSV(f,
		ingest.WithImagePrefix(*prefix),
		ingest.WithDatasetOptions(a.datasetOptions()...),
	)
	if err != nil {
		return err
	}
	if err := save(ds, rest[1]); err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "kept %d of %d images\n", report.Kept, report.Rows)
	for _, reason := range slices.Sorted(maps.Keys(report.Skipped)) {
		fmt.Fprintf(a.stdout, "skipped %d: %s\n", report.Skipped[reason], reason)
	}
	return nil
}

func (a *app) verify(ctx context.Context, args []string) error {
	fs := a.flagSet("verify")
	rest, err := parseArgs(fs, args, 1)
	if err != nil {
		return err
	}
	ds, err := studyset.Load(rest[0], a.datasetOptions()...)
	if err != nil {
		return err
	}
	return a.verifyImages(ctx, ds)
}

func (a *app) verifyImages(ctx context.Context, ds *studyset.Dataset) error {
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	missing, err := ds.VerifyImages(ctx, store, studyset.VerifyOptions{
		Concurrency:    a.cfg.VerifyConcurrency,
		RequestsPerSec: a.cfg.VerifyRate,
	})
	if err != nil {
		return err
	}
	for _, m := range missing {
		fmt.Fprintf(a.stdout, "missing %s\n", m)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%d image references missing", len(missing))
	}
	return nil
}

func (a *app) push(ctx context.Context, args []string) error {
	fs := a.flagSet("push")
	verify := fs.Bool("verify", false, "Check image references before publishing")
	ext := fs.String("ext", a.cfg.SnapshotExt, "Snapshot suffix, selects the compression")
	rest, err := parseArgs(fs, args, 1)
	if err != nil {
		return err
	}
	ds, err := studyset.Load(rest[0], a.datasetOptions()...)
	if err != nil {
		return err
	}
	if *verify {
		if err := a.verifyImages(ctx, ds); err != nil {
			return err
		}
	}

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	name, err := ds.Publish(ctx, catalog.New(store), *ext)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, name)
	return nil
}

func (a *app) pull(ctx context.Context, args []string) error {
	fs := a.flagSet("pull")
	name := fs.String("name", "", "Snapshot blob to fetch instead of the current one")
	rest, err := parseArgs(fs, args, 1)
	if err != nil {
		return err
	}
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}

	var ds *studyset.Dataset
	if *name != "" {
		ds, err = studyset.LoadSnapshotFrom(ctx, store, *name, a.datasetOptions()...)
	} else {
		ds, err = studyset.LoadLatest(ctx, catalog.New(store), a.datasetOptions()...)
	}
	if err != nil {
		return err
	}
	return save(ds, rest[0])
}

func (a *app) list(ctx context.Context, args []string) error {
	fs := a.flagSet("list")
	if _, err := parseArgs(fs, args, 0); err != nil {
		return err
	}
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	cat := catalog.New(store)
	names, err := cat.List(ctx)
	if err != nil {
		return err
	}
	current, err := cat.Latest(ctx)
	if err != nil && !errors.Is(err, catalog.ErrNoSnapshot) {
		return err
	}
	for _, n := range names {
		marker := " "
		if n == current {
			marker = "*"
		}
		fmt.Fprintf(a.stdout, "%s %s\n", marker, n)
	}
	return nil
}

func (a *app) prune(ctx context.Context, args []string) error {
	fs := a.flagSet("prune")
	if _, err := parseArgs(fs, args, 0); err != nil {
		return err
	}
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	deleted, err := catalog.New(store).Prune(ctx)
	for _, n := range deleted {
		fmt.Fprintf(a.stdout, "deleted %s\n", n)
	}
	return err
}

// filterFlag collects repeated -where flags.
type filterFlag []metadata.Filter

func (f *filterFlag) String() string {
	parts := make([]string, len(*f))
	for i, flt := range *f {
		parts[i] = flt.String()
	}
	return strings.Join(parts, ", ")
}

func (f *filterFlag) Set(s string) error {
	flt, err := parseFilter(s)
	if err != nil {
		return err
	}
	*f = append(*f, flt)
	return nil
}

func (f filterFlag) set() *metadata.FilterSet {
	if len(f) == 0 {
		return nil
	}
	return metadata.NewFilterSet(f...)
}
