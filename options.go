package studyset

import (
	"log/slog"

	"github.com/hupe1980/studyset/codec"
	"github.com/hupe1980/studyset/internal/fs"
	"github.com/hupe1980/studyset/metadata"
	"github.com/hupe1980/studyset/requirement"
)

// DefaultSpace is the reference space assumed when none is configured.
const DefaultSpace = "MNI"

type options struct {
	space            string
	vocabulary       *requirement.Vocabulary
	imageTypes       []string
	metadataFields   []string
	schema           metadata.Schema
	strictSchema     bool
	codec            codec.Codec
	metricsCollector MetricsCollector
	logger           *Logger
	fs               fs.FileSystem
}

// Option configures Dataset constructor/load behavior.
type Option func(*options)

func defaultOptions() options {
	return options{
		space:            DefaultSpace,
		codec:            codec.Default,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		fs:               fs.Default,
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// vocab builds the requirement vocabulary from the options.
func (o *options) vocab() *requirement.Vocabulary {
	var v *requirement.Vocabulary
	if o.vocabulary != nil {
		v = o.vocabulary.Clone()
	} else {
		v = requirement.DefaultVocabulary()
	}
	v.AddImageTypes(o.imageTypes...)
	v.AddMetadataFields(o.metadataFields...)
	v.AddMetadataFields(o.schema.Fields()...)
	return v
}

// WithSpace sets the dataset's reference space (e.g. "MNI", "TAL").
// Snapshots carry their own space, which takes precedence on load.
func WithSpace(space string) Option {
	return func(o *options) {
		o.space = space
	}
}

// WithVocabulary replaces the default requirement vocabulary.
//
// WithImageTypes, WithMetadataFields and WithSchema still extend it.
func WithVocabulary(v *requirement.Vocabulary) Option {
	return func(o *options) {
		o.vocabulary = v
	}
}

// WithImageTypes registers additional image-type labels as requirement clauses.
func WithImageTypes(labels ...string) Option {
	return func(o *options) {
		o.imageTypes = append(o.imageTypes, labels...)
	}
}

// WithMetadataFields registers additional metadata fields as requirement clauses.
func WithMetadataFields(fields ...string) Option {
	return func(o *options) {
		o.metadataFields = append(o.metadataFields, fields...)
	}
}

// WithSchema validates study metadata against schema on Add and Load.
// The schema's field names become requirement clauses.
func WithSchema(schema metadata.Schema) Option {
	return func(o *options) {
		o.schema = schema
	}
}

// WithStrictSchema makes Load reject records that omit any of the
// "metadata", "images" or "coordinates" keys.
func WithStrictSchema() Option {
	return func(o *options) {
		o.strictSchema = true
	}
}

// WithCodec configures the codec used for the structured JSON format.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &studyset.BasicMetricsCollector{}
//	ds, _ := studyset.Load("dataset.json", studyset.WithMetricsCollector(metrics))
//	stats := metrics.GetStats()
//	fmt.Printf("Loads: %d, Avg latency: %dns\n", stats.LoadCount, stats.LoadAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := studyset.NewJSONLogger(slog.LevelInfo)
//	ds, _ := studyset.Load("dataset.json", studyset.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel enables text logging to stderr at the given level.
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// withFileSystem overrides the filesystem used for local files.
func withFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		o.fs = fsys
	}
}
