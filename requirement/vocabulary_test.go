package requirement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/studyset/metadata"
	"github.com/hupe1980/studyset/model"
)

func TestDefaultVocabulary(t *testing.T) {
	v := DefaultVocabulary()

	c, ok := v.Lookup("coordinates")
	require.True(t, ok)
	assert.Equal(t, CategoryCoordinates, c)

	for _, label := range DefaultImageTypes {
		c, ok := v.Lookup(label)
		require.True(t, ok, label)
		assert.True(t, c.Has(CategoryImage))
	}
	for _, field := range DefaultMetadataFields {
		c, ok := v.Lookup(field)
		require.True(t, ok, field)
		assert.True(t, c.Has(CategoryMetadata))
	}

	_, ok = v.Lookup("bogus_field")
	assert.False(t, ok)
}

func TestVocabularyExtend(t *testing.T) {
	v := NewVocabulary()
	assert.Equal(t, []string{"coordinates"}, v.Names())

	v.AddImageTypes("tmap", "")
	v.AddMetadataFields("scanner")

	_, err := Parse("tmap AND scanner", v)
	require.NoError(t, err)

	_, err = Parse("z", v)
	assert.Error(t, err)

	clone := v.Clone()
	clone.AddImageTypes("z")
	_, ok := v.Lookup("z")
	assert.False(t, ok)
}

func TestVocabularyDualCategory(t *testing.T) {
	v := NewVocabulary()
	v.AddImageTypes("contrast")
	v.AddMetadataFields("contrast")

	c, _ := v.Lookup("contrast")
	assert.Equal(t, "image|metadata", c.String())

	r := MustParse("contrast", v)
	assert.True(t, r.Matches(&model.Study{Images: map[string]string{"contrast": "c.nii"}}))
	assert.True(t, r.Matches(&model.Study{Metadata: metadata.Document{"contrast": metadata.String("2-back")}}))
	assert.False(t, r.Matches(&model.Study{}))
}

func TestCategoryString(t *testing.T) {
	assert.Equal(t, "none", Category(0).String())
	assert.Equal(t, "coordinates", CategoryCoordinates.String())
}
