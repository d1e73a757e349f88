package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPartURL(t *testing.T) {
	url, err := BuildPartURL(" ps11752778 ")
	require.NoError(t, err)
	assert.Equal(t, "https://www.partselect.com/PS11752778-1.htm", url)
}

func TestBuildPartURL_Invalid(t *testing.T) {
	for _, in := range []string{"", "PS 123", "../etc", "<script>"} {
		_, err := BuildPartURL(in)
		assert.Error(t, err, in)
	}
}

func TestParseDifficulty(t *testing.T) {
	tests := []struct {
		in   string
		want Difficulty
		ok   bool
	}{
		{"Really Easy", DifficultyReallyEasy, true},
		{"very  easy", DifficultyVeryEasy, true},
		{"Easy", DifficultyEasy, true},
		{"Moderate", DifficultyModerate, true},
		{"Hard", DifficultyHard, true},
		{"Somewhat tricky", "", false},
		{"Easy-ish", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDifficulty(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeProductType(t *testing.T) {
	assert.Equal(t, "refrigerator", NormalizeProductType("Refrigerator."))
	assert.Equal(t, "dishwasher", NormalizeProductType(" Dishwasher "))
	assert.Equal(t, "washer", NormalizeProductType("Washer."))
	assert.Equal(t, "", NormalizeProductType("  "))
}

func TestEmptyPartRecord_SerializesAllKeys(t *testing.T) {
	data, err := json.Marshal(EmptyPartRecord("https://www.partselect.com/PS1-1.htm"))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	keys := []string{"url", "name", "price", "part_number", "manufacturer_part", "replaces_parts",
		"difficulty", "time_estimate", "rating", "review_count", "product_type", "in_stock",
		"description", "you_may_need", "symptoms", "part_videos", "model_compatibility"}
	assert.Len(t, decoded, len(keys))
	for _, k := range keys {
		assert.Contains(t, decoded, k)
	}
	assert.Nil(t, decoded["price"])
	assert.Equal(t, []any{}, decoded["symptoms"])
}

func TestClone_DoesNotShareSlices(t *testing.T) {
	price := 12.5
	rec := EmptyPartRecord("u")
	rec.Price = &price
	rec.Symptoms = []string{"Leaking"}

	clone := rec.Clone()
	clone.Symptoms[0] = "changed"
	*clone.Price = 1

	assert.Equal(t, "Leaking", rec.Symptoms[0])
	assert.Equal(t, 12.5, *rec.Price)
}

func TestBuildRepairURL(t *testing.T) {
	url, err := BuildRepairURL(" dishwasher ")
	require.NoError(t, err)
	assert.Equal(t, "https://www.partselect.com/Repair/Dishwasher/", url)

	url, err = BuildSymptomURL("REFRIGERATOR", "/Not-Making-Ice/")
	require.NoError(t, err)
	assert.Equal(t, "https://www.partselect.com/Repair/Refrigerator/Not-Making-Ice/", url)
}

func TestBuildRepairURL_Invalid(t *testing.T) {
	for _, in := range []string{"", "d", "../etc", "Dish washer", "<script>"} {
		_, err := BuildRepairURL(in)
		assert.Error(t, err, in)
	}
	_, err := BuildSymptomURL("Dishwasher", "../../admin")
	assert.Error(t, err)
}
