package studyset

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/hupe1980/studyset/codec"
	"github.com/hupe1980/studyset/internal/fs"
	"github.com/hupe1980/studyset/metadata"
	"github.com/hupe1980/studyset/model"
	"github.com/hupe1980/studyset/snapshot"
)

const (
	keyMetadata    = "metadata"
	keyImages      = "images"
	keyCoordinates = "coordinates"

	// reservedPrefix marks top-level keys that are not study IDs.
	reservedPrefix = "_"
)

var recordKeys = []string{keyMetadata, keyImages, keyCoordinates}

var (
	errNotObject   = errors.New("top-level value must be an object keyed by study id")
	errNumberRange = errors.New("out of float64 range")
)

func decodeJSON(o options, name string, data []byte) (*Dataset, error) {
	var top map[string]codec.RawMessage
	if err := o.codec.Unmarshal(data, &top); err != nil {
		return nil, newFormatError(name, err)
	}
	if top == nil {
		return nil, newFormatError(name, errNotObject)
	}

	studies := make([]*model.Study, 0, len(top))
	for _, id := range slices.Sorted(maps.Keys(top)) {
		if strings.HasPrefix(id, reservedPrefix) {
			continue
		}
		s, err := decodeRecord(o, id, top[id])
		if err != nil {
			return nil, withPath(name, err)
		}
		studies = append(studies, s)
	}

	d := newDataset(o)
	if err := d.add(studies); err != nil {
		return nil, withPath(name, err)
	}
	return d, nil
}

func decodeRecord(o options, id string, raw codec.RawMessage) (*model.Study, error) {
	var rec map[string]codec.RawMessage
	if codec.IsNull(raw) || o.codec.Unmarshal(raw, &rec) != nil {
		return nil, &SchemaError{StudyID: id, Reason: "record must be an object"}
	}

	s := &model.Study{ID: id}
	for _, key := range recordKeys {
		field, ok := rec[key]
		if !ok {
			if o.strictSchema {
				return nil, &SchemaError{StudyID: id, Field: key, Reason: "missing"}
			}
			continue
		}
		if codec.IsNull(field) {
			continue
		}

		var err error
		switch key {
		case keyMetadata:
			s.Metadata, err = decodeMetadata(o.codec, id, field)
		case keyImages:
			s.Images, err = decodeImages(o.codec, id, field)
		case keyCoordinates:
			s.Coordinates, err = decodeCoordinates(o.codec, id, field)
		}
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

func decodeMetadata(c codec.Codec, id string, raw codec.RawMessage) (metadata.Document, error) {
	var fields map[string]codec.RawMessage
	if err := c.Unmarshal(raw, &fields); err != nil {
		return nil, &SchemaError{StudyID: id, Field: keyMetadata, Reason: "must be an object", cause: err}
	}
	doc := make(metadata.Document, len(fields))
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		v, err := decodeValue(c, fields[k], true)
		if err != nil {
			return nil, &SchemaError{StudyID: id, Field: keyMetadata + "." + k, Reason: err.Error(), cause: err}
		}
		doc[k] = v
	}
	return doc, nil
}

// decodeValue converts a raw JSON value to a metadata value. Integers stay
// integers; objects and nested arrays are rejected.
func decodeValue(c codec.Codec, raw codec.RawMessage, allowArray bool) (metadata.Value, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return metadata.Value{}, errors.New("empty value")
	}

	switch raw[0] {
	case 'n':
		if codec.IsNull(raw) {
			return metadata.Null(), nil
		}
	case '{':
		return metadata.Value{}, errors.New("nested objects are not supported")
	case '[':
		if !allowArray {
			return metadata.Value{}, errors.New("nested arrays are not supported")
		}
		var elems []codec.RawMessage
		if err := c.Unmarshal(raw, &elems); err != nil {
			return metadata.Value{}, err
		}
		vals := make([]metadata.Value, len(elems))
		for i, e := range elems {
			v, err := decodeValue(c, e, false)
			if err != nil {
				return metadata.Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			vals[i] = v
		}
		return metadata.Array(vals), nil
	case '"':
		var s string
		if err := c.Unmarshal(raw, &s); err != nil {
			return metadata.Value{}, err
		}
		return metadata.String(s), nil
	case 't', 'f':
		var b bool
		if err := c.Unmarshal(raw, &b); err != nil {
			return metadata.Value{}, err
		}
		return metadata.Bool(b), nil
	default:
		if i, err := strconv.ParseInt(string(raw), 10, 64); err == nil {
			return metadata.Int(i), nil
		}
		f, err := parseFloat(raw)
		if err == nil {
			return metadata.Float(f), nil
		}
		if errors.Is(err, errNumberRange) {
			return metadata.Value{}, err
		}
	}
	return metadata.Value{}, fmt.Errorf("invalid value %s", raw)
}

func decodeImages(c codec.Codec, id string, raw codec.RawMessage) (map[string]string, error) {
	var entries map[string]codec.RawMessage
	if err := c.Unmarshal(raw, &entries); err != nil {
		return nil, &SchemaError{StudyID: id, Field: keyImages, Reason: "must be an object", cause: err}
	}
	images := make(map[string]string, len(entries))
	for _, label := range slices.Sorted(maps.Keys(entries)) {
		entry := entries[label]
		if codec.IsNull(entry) {
			continue
		}
		var path string
		if err := c.Unmarshal(entry, &path); err != nil {
			return nil, &SchemaError{StudyID: id, Field: keyImages + "." + label, Reason: "path must be a string", cause: err}
		}
		images[label] = path
	}
	return images, nil
}

func decodeCoordinates(c codec.Codec, id string, raw codec.RawMessage) ([]model.Coordinate, error) {
	var points []codec.RawMessage
	if err := c.Unmarshal(raw, &points); err != nil {
		return nil, &SchemaError{StudyID: id, Field: keyCoordinates, Reason: "must be an array", cause: err}
	}

	coords := make([]model.Coordinate, 0, len(points))
	for i, p := range points {
		xyz, err := decodePoint(c, p)
		if err != nil {
			reason := "must be an array of 3 numbers"
			if errors.Is(err, errNumberRange) {
				reason = err.Error()
			}
			return nil, &SchemaError{
				StudyID: id,
				Field:   fmt.Sprintf("%s[%d]", keyCoordinates, i),
				Reason:  reason,
				cause:   err,
			}
		}
		coords = append(coords, model.Coordinate{X: xyz[0], Y: xyz[1], Z: xyz[2]})
	}
	return coords, nil
}

func decodePoint(c codec.Codec, raw codec.RawMessage) ([3]float64, error) {
	var out [3]float64
	var elems []codec.RawMessage
	if err := c.Unmarshal(raw, &elems); err != nil {
		return out, err
	}
	if len(elems) != 3 {
		return out, fmt.Errorf("got %d elements", len(elems))
	}
	for i, e := range elems {
		f, err := parseFloat(bytes.TrimSpace(e))
		if err != nil {
			return out, err
		}
		out[i] = f
	}
	return out, nil
}

// parseFloat parses a JSON number. Numbers beyond the float64 range fail with
// errNumberRange instead of becoming infinities.
func parseFloat(raw []byte) (float64, error) {
	f, err := strconv.ParseFloat(string(raw), 64)
	if errors.Is(err, strconv.ErrRange) {
		return 0, fmt.Errorf("number %s %w", raw, errNumberRange)
	}
	return f, err
}

// jsonRecord is the structured-format representation of one study.
type jsonRecord struct {
	Metadata    metadata.Document `json:"metadata"`
	Images      map[string]string `json:"images"`
	Coordinates [][3]float64      `json:"coordinates"`
}

// WriteJSON writes the dataset in the structured JSON format accepted by Load.
func (d *Dataset) WriteJSON(w io.Writer) error {
	records := make(map[string]jsonRecord, len(d.studies))
	for id, s := range d.studies {
		rec := jsonRecord{
			Metadata:    s.Metadata,
			Images:      s.Images,
			Coordinates: make([][3]float64, len(s.Coordinates)),
		}
		if rec.Metadata == nil {
			rec.Metadata = metadata.Document{}
		}
		if rec.Images == nil {
			rec.Images = map[string]string{}
		}
		for i, c := range s.Coordinates {
			rec.Coordinates[i] = [3]float64{c.X, c.Y, c.Z}
		}
		records[id] = rec
	}

	var (
		data []byte
		err  error
	)
	if ind, ok := d.opts.codec.(codec.Indenter); ok {
		data, err = ind.MarshalIndent(records, "", "  ")
	} else {
		data, err = d.opts.codec.Marshal(records)
	}
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// SaveJSON atomically writes the dataset to path in the structured JSON
// format, compressed according to the path suffix.
func (d *Dataset) SaveJSON(path string) error {
	return fs.WriteFileAtomic(d.opts.fs, path, 0o644, func(w io.Writer) error {
		cw, err := snapshot.NewWriter(w, snapshot.CompressionForPath(path))
		if err != nil {
			return err
		}
		if err := d.WriteJSON(cw); err != nil {
			_ = cw.Close()
			return err
		}
		return cw.Close()
	})
}

