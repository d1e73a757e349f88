package service

import (
	"context"

	"partselect/parser/internal/domain"
	"partselect/parser/internal/fetcher"

	log "github.com/sirupsen/logrus"
)

// RepairGuide scrapes the repair page of an appliance: its introduction,
// the common symptoms with their share of customers and the troubleshooting
// videos.
func (s *Service) RepairGuide(ctx context.Context, appliance string) (domain.RepairGuide, error) {
	url, err := domain.BuildRepairURL(appliance)
	if err != nil {
		return domain.RepairGuide{}, s.fetchFailed(fetcher.NewFetchError(fetcher.CodeInvalidInput, "invalid appliance type", err))
	}

	html, err := s.fetchHTML(ctx, url)
	if err != nil {
		return domain.RepairGuide{}, err
	}

	normalized, _ := domain.NormalizeAppliance(appliance)
	guide, report := s.extractor.ExtractRepairGuide(normalized, url, html)
	log.Infof("✅ Extracted %s repair guide: %d symptoms, %d videos (%d failures)",
		normalized, len(guide.Symptoms), len(guide.TroubleshootingVideos), len(report.Failures))
	return guide, nil
}

// SymptomDetail scrapes the page of one symptom of an appliance repair
// guide, e.g. "Noisy" for dishwashers.
func (s *Service) SymptomDetail(ctx context.Context, appliance, symptom string) (domain.SymptomDetail, error) {
	url, err := domain.BuildSymptomURL(appliance, symptom)
	if err != nil {
		return domain.SymptomDetail{}, s.fetchFailed(fetcher.NewFetchError(fetcher.CodeInvalidInput, "invalid symptom", err))
	}

	html, err := s.fetchHTML(ctx, url)
	if err != nil {
		return domain.SymptomDetail{}, err
	}

	detail, report := s.extractor.ExtractSymptomDetail(symptom, url, html)
	log.Infof("✅ Extracted symptom %s: %d repair sections (%d failures)", url, len(detail.Sections), len(report.Failures))
	return detail, nil
}

// fetchHTML loads a page that needs no interactive sections.
func (s *Service) fetchHTML(ctx context.Context, url string) (string, error) {
	log.Infof("🔍 Scraping %s", url)
	page, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return "", s.fetchFailed(err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			log.Debugf("Failed to close page %s: %v", url, err)
		}
	}()
	return page.HTML(), nil
}
