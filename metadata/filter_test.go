package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterMatches(t *testing.T) {
	doc := Document{
		"sample_size":        Int(24),
		"smoothing":          Float(6.5),
		"analysis_level":     String("group"),
		"cognitive_paradigm": String("working memory n-back"),
		"thresholded":        Bool(false),
		"tags":               Array([]Value{String("wm"), String("fmri")}),
		"doi":                Null(),
	}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"eq string", Eq("analysis_level", String("group")), true},
		{"eq int vs float", Eq("sample_size", Float(24)), true},
		{"eq mismatch", Eq("analysis_level", String("single")), false},
		{"eq null", Eq("doi", Null()), true},
		{"ne", Ne("analysis_level", String("single")), true},
		{"gt", Gt("sample_size", Int(20)), true},
		{"gte equal", Gte("sample_size", Int(24)), true},
		{"lt float", Lt("smoothing", Int(7)), true},
		{"lte", Lte("smoothing", Float(6.5)), true},
		{"gt string", Gt("analysis_level", Int(1)), false},
		{"in", In("analysis_level", String("single"), String("group")), true},
		{"in miss", In("sample_size", Int(1), Int(2)), false},
		{"contains substring", Contains("cognitive_paradigm", "n-back"), true},
		{"contains array", Contains("tags", "wm"), true},
		{"contains array miss", Contains("tags", "pet"), false},
		{"bool", Eq("thresholded", Bool(false)), true},
		{"absent", Eq("missing", Null()), false},
		{"absent ne", Ne("missing", Int(1)), false},
		{"unknown op", Filter{Key: "sample_size", Operator: "xx", Value: Int(1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(doc))
		})
	}
}

func TestFilterSetMatches(t *testing.T) {
	doc := Document{"sample_size": Int(30), "analysis_level": String("group")}

	fs := NewFilterSet(
		Eq("analysis_level", String("group")),
		Gte("sample_size", Int(20)),
	)
	assert.True(t, fs.Matches(doc))

	fs.Filters = append(fs.Filters, Lt("sample_size", Int(25)))
	assert.False(t, fs.Matches(doc))

	var nilSet *FilterSet
	assert.True(t, nilSet.Matches(doc))
	assert.True(t, NewFilterSet().Matches(nil))
}

func TestParseOperator(t *testing.T) {
	for in, want := range map[string]Operator{
		"=": OpEqual, "eq": OpEqual, "!=": OpNotEqual, ">": OpGreaterThan,
		">=": OpGreaterEqual, "<": OpLessThan, "<=": OpLessEqual,
		"in": OpIn, "contains": OpContains,
	} {
		op, err := ParseOperator(in)
		require.NoError(t, err)
		assert.Equal(t, want, op)
	}

	_, err := ParseOperator("~")
	assert.Error(t, err)
}

func TestFilterString(t *testing.T) {
	assert.Equal(t, `analysis_level eq "group"`, Eq("analysis_level", String("group")).String())
}
