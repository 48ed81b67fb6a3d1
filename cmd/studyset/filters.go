package main

import (
	"fmt"
	"strings"

	"github.com/hupe1980/studyset/metadata"
)

// parseFilter parses "field:op:value", e.g. "sample_size:gte:20".
// The value of an "in" filter is a comma-separated list.
func parseFilter(s string) (metadata.Filter, error) {
	field, rest, ok := strings.Cut(s, ":")
	if !ok || field == "" {
		return metadata.Filter{}, fmt.Errorf("filter %q: want field:op:value", s)
	}
	opText, valueText, ok := strings.Cut(rest, ":")
	if !ok {
		return metadata.Filter{}, fmt.Errorf("filter %q: want field:op:value", s)
	}
	op, err := metadata.ParseOperator(opText)
	if err != nil {
		return metadata.Filter{}, fmt.Errorf("filter %q: %w", s, err)
	}

	switch op {
	case metadata.OpContains:
		return metadata.Contains(field, valueText), nil
	case metadata.OpIn:
		parts := strings.Split(valueText, ",")
		vs := make([]metadata.Value, len(parts))
		for i, p := range parts {
			vs[i] = metadata.ParseString(strings.TrimSpace(p))
		}
		return metadata.In(field, vs...), nil
	default:
		return metadata.Filter{Key: field, Operator: op, Value: metadata.ParseString(valueText)}, nil
	}
}
