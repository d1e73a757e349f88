package assistant

import (
	"context"
	"encoding/json"
	"testing"

	"partselect/parser/internal/domain"
	"partselect/parser/internal/fetcher"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetRepairGuides_DefaultsToDishwasher(t *testing.T) {
	guide := domain.EmptyRepairGuide("Dishwasher", "https://www.partselect.com/Repair/Dishwasher/")
	guide.IntroText = "Repairs take less than 30 minutes — usually."
	guide.Symptoms = []domain.RepairSymptom{{Title: "Noisy", Description: "It’s loud", Slug: "Noisy"}}
	lookup := &fakeLookup{guide: guide}

	result, err := handleGetRepairGuides(lookup)(context.Background(), toolRequest(GetRepairGuides, map[string]any{}))
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Equal(t, []string{"Dishwasher"}, lookup.calls)

	var decoded domain.RepairGuide
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &decoded))
	assert.Equal(t, "Repairs take less than 30 minutes - usually.", decoded.IntroText)
	assert.Equal(t, "It's loud", decoded.Symptoms[0].Description)
	assert.Equal(t, "It’s loud", guide.Symptoms[0].Description)
}

func TestGetRepairGuides_Symptom(t *testing.T) {
	detail := domain.EmptySymptomDetail("Noisy", "https://www.partselect.com/Repair/Refrigerator/Noisy/")
	detail.Sections = []domain.RepairSection{{
		Title:        "Evaporator Fan Motor",
		Instructions: []string{"Unplug the fridge…"},
		RelatedParts: []domain.RepairPart{},
	}}
	lookup := &fakeLookup{detail: detail}

	result, err := handleGetRepairGuides(lookup)(context.Background(), toolRequest(GetRepairGuides, map[string]any{
		applianceParam: "refrigerator",
		symptomParam:   "Noisy",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Equal(t, []string{"refrigerator/Noisy"}, lookup.calls)
	assert.Contains(t, resultText(t, result), `"Unplug the fridge..."`)
}

func TestGetRepairGuides_UnsupportedAppliance(t *testing.T) {
	lookup := &fakeLookup{}
	result, err := handleGetRepairGuides(lookup)(context.Background(), toolRequest(GetRepairGuides, map[string]any{
		applianceParam: "Washer",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "refrigerator or dishwasher")
	assert.Empty(t, lookup.calls)
}

func TestGetRepairGuides_FetchFailure(t *testing.T) {
	lookup := &fakeLookup{err: fetcher.NewFetchError(fetcher.CodeUnreachable, "navigation timed out", nil)}
	result, err := handleGetRepairGuides(lookup)(context.Background(), toolRequest(GetRepairGuides, map[string]any{
		applianceParam: "Dishwasher",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "UNREACHABLE")
}
