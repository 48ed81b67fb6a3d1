package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/hupe1980/studyset"
	"github.com/hupe1980/studyset/metadata"
	"github.com/hupe1980/studyset/model"
)

// Columns read from the NeuroVault image table. Other columns are ignored.
const (
	ColImageID       = "image_id"
	ColCollectionID  = "collection_id"
	ColFile          = "file"
	ColMapType       = "map_type"
	ColAnalysisLevel = "analysis_level"
	ColThresholded   = "is_thresholded"
	ColNotMNI        = "not_mni"
	ColParadigm      = "cognitive_paradigm_cogatlas"
	ColSubjects      = "number_of_subjects"
	ColDOI           = "DOI"
)

var requiredColumns = []string{
	ColImageID, ColCollectionID, ColFile, ColMapType, ColAnalysisLevel,
	ColThresholded, ColNotMNI, ColParadigm, ColSubjects, ColDOI,
}

// mapTypes maps NeuroVault map types to image labels.
var mapTypes = map[string]string{
	"Z map":               "z",
	"T map":               "t",
	"F map":               "f",
	"univariate-beta map": "beta",
}

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("ingest: missing column")

// RowError reports a value that could not be parsed.
type RowError struct {
	Line   int
	Column string
	Value  string
	cause  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("ingest: line %d column %q: invalid value %q: %v", e.Line, e.Column, e.Value, e.cause)
}

func (e *RowError) Unwrap() error { return e.cause }

// Image is one row of the NeuroVault image table.
// Optional fields are nil when the cell is empty.
type Image struct {
	Line          int
	ImageID       int64
	CollectionID  *int64
	File          string
	MapType       string
	AnalysisLevel string
	Thresholded   *bool
	NotMNI        *bool
	Paradigm      string
	Subjects      *int64
	DOI           string
}

// ID returns the study ID for the image.
func (img *Image) ID() string {
	return fmt.Sprintf("%06d", img.ImageID)
}

// SkipReason says why an image was not kept.
type SkipReason string

const (
	SkipNoParadigm   SkipReason = "no cognitive paradigm"
	SkipNotGroup     SkipReason = "not group level"
	SkipThresholded  SkipReason = "thresholded"
	SkipNotMNI       SkipReason = "not MNI"
	SkipMapType      SkipReason = "unsupported map type"
	SkipNoSampleSize SkipReason = "T map without sample size"
	SkipNoFile       SkipReason = "no file"
)

// Classify applies the selection rules. It returns the image label for a
// kept image, or the first rule the image fails.
// Unknown thresholding or space counts as failing the rule.
func (img *Image) Classify() (string, SkipReason) {
	switch {
	case img.Paradigm == "":
		return "", SkipNoParadigm
	case img.AnalysisLevel != "group":
		return "", SkipNotGroup
	case img.Thresholded == nil || *img.Thresholded:
		return "", SkipThresholded
	case img.NotMNI == nil || *img.NotMNI:
		return "", SkipNotMNI
	}
	label, ok := mapTypes[img.MapType]
	if !ok {
		return "", SkipMapType
	}
	if label == "t" && img.Subjects == nil {
		return "", SkipNoSampleSize
	}
	if img.File == "" {
		return "", SkipNoFile
	}
	return label, ""
}

// Report summarizes an ingest run.
type Report struct {
	Rows    int
	Kept    int
	Skipped map[SkipReason]int
}

type options struct {
	imagePrefix    string
	datasetOptions []studyset.Option
}

// Option configures NeuroVaultCSV.
type Option func(*options)

// WithImagePrefix sets the blob prefix for image paths. Defaults to "images".
func WithImagePrefix(prefix string) Option {
	return func(o *options) {
		o.imagePrefix = strings.Trim(prefix, "/")
	}
}

// WithDatasetOptions passes options to the dataset being built.
func WithDatasetOptions(opts ...studyset.Option) Option {
	return func(o *options) {
		o.datasetOptions = append(o.datasetOptions, opts...)
	}
}

// NeuroVaultCSV reads a NeuroVault image table and returns a dataset with
// one study per kept image.
func NeuroVaultCSV(r io.Reader, opts ...Option) (*studyset.Dataset, *Report, error) {
	o := options{imagePrefix: "images"}
	for _, opt := range opts {
		opt(&o)
	}

	images, err := ReadImages(r)
	if err != nil {
		return nil, nil, err
	}

	report := &Report{Rows: len(images), Skipped: make(map[SkipReason]int)}
	studies := make([]*model.Study, 0, len(images))
	for _, img := range images {
		label, reason := img.Classify()
		if reason != "" {
			report.Skipped[reason]++
			continue
		}
		studies = append(studies, img.study(label, o.imagePrefix))
	}

	ds := studyset.New(o.datasetOptions...)
	if err := ds.Add(studies...); err != nil {
		return nil, nil, err
	}
	report.Kept = len(studies)
	return ds, report, nil
}

func (img *Image) study(label, prefix string) *model.Study {
	md := metadata.Document{
		"analysis_level":     metadata.String(img.AnalysisLevel),
		"cognitive_paradigm": metadata.String(img.Paradigm),
		"map_type":           metadata.String(img.MapType),
		"doi":                metadata.Null(),
	}
	if img.DOI != "" {
		md["doi"] = metadata.String(img.DOI)
	}
	if img.CollectionID != nil {
		md["collection_id"] = metadata.Int(*img.CollectionID)
	}
	if img.Subjects != nil {
		md["sample_size"] = metadata.Int(*img.Subjects)
	}

	return &model.Study{
		ID:       img.ID(),
		Metadata: md,
		Images:   map[string]string{label: path.Join(prefix, img.ID(), fileBase(img.File))},
	}
}

// fileBase returns the last path element of a file URL or path.
func fileBase(file string) string {
	if u, err := url.Parse(file); err == nil && u.Path != "" {
		file = u.Path
	}
	return path.Base(file)
}

// ReadImages parses a NeuroVault image table. Columns are matched by
// header name.
func ReadImages(r io.Reader) ([]*Image, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("ingest: read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := cols[h]; !dup {
			cols[h] = i
		}
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("%w %q", ErrMissingColumn, c)
		}
	}

	var images []*Image
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ingest: %w", err)
		}
		line, _ := reader.FieldPos(0)
		img, err := parseRow(line, func(c string) string {
			if v := strings.TrimSpace(row[cols[c]]); !isMissing(v) {
				return v
			}
			return ""
		})
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, nil
}

func parseRow(line int, cell func(string) string) (*Image, error) {
	img := &Image{
		Line:          line,
		File:          cell(ColFile),
		MapType:       cell(ColMapType),
		AnalysisLevel: cell(ColAnalysisLevel),
		Paradigm:      cell(ColParadigm),
		DOI:           cell(ColDOI),
	}

	id, err := parseCount(line, ColImageID, cell(ColImageID))
	if err != nil {
		return nil, err
	}
	if id == nil {
		return nil, &RowError{Line: line, Column: ColImageID, cause: errors.New("required")}
	}
	img.ImageID = *id

	if img.CollectionID, err = parseCount(line, ColCollectionID, cell(ColCollectionID)); err != nil {
		return nil, err
	}
	if img.Subjects, err = parseCount(line, ColSubjects, cell(ColSubjects)); err != nil {
		return nil, err
	}
	if img.Thresholded, err = parseBool(line, ColThresholded, cell(ColThresholded)); err != nil {
		return nil, err
	}
	if img.NotMNI, err = parseBool(line, ColNotMNI, cell(ColNotMNI)); err != nil {
		return nil, err
	}
	return img, nil
}

// parseCount parses a non-negative integer. Tabular exports write integer
// columns with missing cells as floats, so "20.0" is accepted.
func parseCount(line int, col, s string) (*int64, error) {
	if s == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return nil, &RowError{Line: line, Column: col, Value: s, cause: err}
		}
		if f != math.Trunc(f) || f < 0 || f > math.MaxInt64 {
			return nil, &RowError{Line: line, Column: col, Value: s, cause: errors.New("not a count")}
		}
		n = int64(f)
	}
	if n < 0 {
		return nil, &RowError{Line: line, Column: col, Value: s, cause: errors.New("negative")}
	}
	return &n, nil
}

func parseBool(line int, col, s string) (*bool, error) {
	if s == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil, &RowError{Line: line, Column: col, Value: s, cause: err}
	}
	return &b, nil
}

func isMissing(s string) bool {
	switch s {
	case "", "nan", "NaN", "None", "null":
		return true
	}
	return false
}
