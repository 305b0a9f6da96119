package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultWeightGrams(t *testing.T) {
	want := map[ItemType]float64{
		ItemTypeTee:       250,
		ItemTypeHoodie:    850,
		ItemTypePants:     700,
		ItemTypeShoes:     1400,
		ItemTypeAccessory: 300,
		ItemTypeCustom:    0,
	}
	for _, typ := range ItemTypes {
		assert.Equal(t, want[typ], typ.DefaultWeightGrams(), typ)
	}
	assert.Zero(t, ItemType("hat").DefaultWeightGrams())
}

func TestEnumValid(t *testing.T) {
	assert.True(t, ItemTypeShoes.Valid())
	assert.False(t, ItemType("socks").Valid())
	assert.True(t, ItemStatusNone.Valid())
	assert.True(t, ItemStatusRefunded.Valid())
	assert.False(t, ItemStatus("lost").Valid())
	assert.True(t, QuoteStatusComplete.Valid())
	assert.False(t, QuoteStatus("").Valid())
}

func TestNullableDistinguishesOmittedFromNull(t *testing.T) {
	var patch struct {
		WeightGrams Nullable[float64] `json:"weightGrams"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{}`), &patch))
	assert.False(t, patch.WeightGrams.Set)

	require.NoError(t, json.Unmarshal([]byte(`{"weightGrams": null}`), &patch))
	assert.True(t, patch.WeightGrams.Set)
	assert.False(t, patch.WeightGrams.Valid)
	assert.Nil(t, patch.WeightGrams.Ptr())

	require.NoError(t, json.Unmarshal([]byte(`{"weightGrams": 420}`), &patch))
	assert.True(t, patch.WeightGrams.Valid)
	require.NotNil(t, patch.WeightGrams.Ptr())
	assert.Equal(t, 420.0, *patch.WeightGrams.Ptr())
}
