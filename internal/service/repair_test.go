package service

import (
	"context"
	"testing"

	"partselect/parser/internal/fetcher"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	repairURL  = "https://www.partselect.com/Repair/Dishwasher/"
	symptomURL = "https://www.partselect.com/Repair/Dishwasher/Noisy/"
)

const repairHTML = `<html><body>
<div class="appliance-intro">Repairing a dishwasher takes less than 30 minutes.</div>
<a href="/Repair/Dishwasher/Noisy/" class="row"><h3 class="title-md">Noisy</h3><p>Grinding sound</p><span>29% of customers</span></a>
</body></html>`

const symptomHTML = `<html><body>
<h2 class="section-title" id="Pump">Circulation Pump</h2>
<div class="symptom-list__desc row"><div class="col-lg-6"><p>A failing pump hums.</p><ol><li>Remove the rack.</li></ol></div></div>
</body></html>`

func TestRepairGuide(t *testing.T) {
	f := &fakeFetcher{html: map[string]string{repairURL: repairHTML}}
	s := NewService(f, nil, nil, nil, 0, 3, 0)

	guide, err := s.RepairGuide(context.Background(), " dishwasher")
	require.NoError(t, err)
	assert.Equal(t, []string{repairURL}, f.fetched)
	assert.True(t, f.pages[0].closed)
	assert.Equal(t, "dishwasher", guide.ApplianceType)
	assert.Equal(t, "Less than 30 minutes", guide.Stats.AverageRepairTime)
	require.Len(t, guide.Symptoms, 1)
	assert.Equal(t, symptomURL, guide.Symptoms[0].URL)
}

func TestRepairGuide_InvalidAppliance(t *testing.T) {
	f := &fakeFetcher{}
	s := NewService(f, nil, nil, nil, 0, 3, 0)

	_, err := s.RepairGuide(context.Background(), "../admin")
	assert.Equal(t, fetcher.CodeInvalidInput, fetcher.CodeOf(err))
	assert.Zero(t, f.count())
}

func TestRepairGuide_FetchFailure(t *testing.T) {
	f := &fakeFetcher{errs: map[string]error{
		repairURL: fetcher.NewFetchError(fetcher.CodeBlocked, "access denied by site", nil),
	}}
	s := NewService(f, nil, nil, nil, 0, 3, 0)

	_, err := s.RepairGuide(context.Background(), "Dishwasher")
	assert.Equal(t, fetcher.CodeBlocked, fetcher.CodeOf(err))
}

func TestSymptomDetail(t *testing.T) {
	f := &fakeFetcher{html: map[string]string{symptomURL: symptomHTML}}
	s := NewService(f, nil, nil, nil, 0, 3, 0)

	detail, err := s.SymptomDetail(context.Background(), "Dishwasher", "Noisy")
	require.NoError(t, err)
	assert.Equal(t, "Noisy", detail.Title)
	assert.Equal(t, symptomURL, detail.URL)
	require.Len(t, detail.Sections, 1)
	assert.Equal(t, []string{"Remove the rack."}, detail.Sections[0].Instructions)
}

func TestSymptomDetail_InvalidSymptom(t *testing.T) {
	s := NewService(&fakeFetcher{}, nil, nil, nil, 0, 3, 0)

	_, err := s.SymptomDetail(context.Background(), "Dishwasher", "a/b")
	assert.Equal(t, fetcher.CodeInvalidInput, fetcher.CodeOf(err))
}
