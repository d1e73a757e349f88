package domain

import (
	"fmt"
	"regexp"
	"strings"
)

const repairURLTemplate = BaseURL + "/Repair/%s/"

var (
	applianceRegex   = regexp.MustCompile(`^[A-Za-z][A-Za-z-]{1,31}$`)
	symptomSlugRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9-]{0,63}$`)
)

// RepairStats summarizes the introduction of an appliance repair page
type RepairStats struct {
	EasyRepairsPercentage *int   `json:"easy_repairs_percentage"`
	AverageRepairTime     string `json:"average_repair_time"`
}

// RepairSymptom is one row of the common symptoms list
type RepairSymptom struct {
	Title                string `json:"title"`
	Description          string `json:"description"`
	URL                  string `json:"url"`
	Slug                 string `json:"url_slug"`
	ReportedByPercentage *int   `json:"reported_by_percentage"`
	ReportedByText       string `json:"reported_by_text"`
}

// TroubleshootingVideo is a video of the repair page gallery
type TroubleshootingVideo struct {
	Title        string `json:"title"`
	URL          string `json:"url"`
	VideoID      string `json:"video_id"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// RepairGuide is the structured result of an appliance repair page such as
// https://www.partselect.com/Repair/Dishwasher/
type RepairGuide struct {
	ApplianceType         string                 `json:"appliance_type"`
	URL                   string                 `json:"url"`
	IntroText             string                 `json:"intro_text"`
	Stats                 RepairStats            `json:"repair_stats"`
	Symptoms              []RepairSymptom        `json:"common_symptoms"`
	TroubleshootingVideos []TroubleshootingVideo `json:"troubleshooting_videos"`
}

// SymptomStats is the "About this repair" box of a symptom page
type SymptomStats struct {
	Difficulty            string `json:"difficulty"`
	RepairStoriesCount    *int   `json:"repair_stories_count"`
	StepByStepVideosCount *int   `json:"step_by_step_videos_count"`
}

// RepairPart is a part linked from a repair section
type RepairPart struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Text string `json:"text"`
}

// RepairSection is one suspected cause on a symptom page
type RepairSection struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Instructions []string     `json:"instructions"`
	RelatedParts []RepairPart `json:"related_parts"`
}

// SymptomDetail is the structured result of a symptom page such as
// https://www.partselect.com/Repair/Dishwasher/Noisy/
type SymptomDetail struct {
	Title    string          `json:"symptom_title"`
	URL      string          `json:"url"`
	Stats    SymptomStats    `json:"repair_stats"`
	Sections []RepairSection `json:"repair_sections"`
}

// NormalizeAppliance turns "dishwasher " into the "Dishwasher" path segment
// used by repair URLs.
func NormalizeAppliance(appliance string) (string, error) {
	trimmed := strings.TrimSpace(appliance)
	if !applianceRegex.MatchString(trimmed) {
		return "", fmt.Errorf("invalid appliance type %q", appliance)
	}
	lower := strings.ToLower(trimmed)
	return strings.ToUpper(lower[:1]) + lower[1:], nil
}

// BuildRepairURL returns the repair guide page of an appliance.
func BuildRepairURL(appliance string) (string, error) {
	normalized, err := NormalizeAppliance(appliance)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(repairURLTemplate, normalized), nil
}

// BuildSymptomURL returns the page of one symptom, e.g. "Noisy", of an
// appliance repair guide.
func BuildSymptomURL(appliance, slug string) (string, error) {
	base, err := BuildRepairURL(appliance)
	if err != nil {
		return "", err
	}
	slug = strings.Trim(strings.TrimSpace(slug), "/")
	if !symptomSlugRegex.MatchString(slug) {
		return "", fmt.Errorf("invalid symptom %q", slug)
	}
	return base + slug + "/", nil
}

// EmptyRepairGuide returns a guide for url with non-nil lists.
func EmptyRepairGuide(appliance, url string) RepairGuide {
	return RepairGuide{
		ApplianceType:         strings.ToLower(appliance),
		URL:                   url,
		Symptoms:              []RepairSymptom{},
		TroubleshootingVideos: []TroubleshootingVideo{},
	}
}

// EmptySymptomDetail returns a detail for url with non-nil lists.
func EmptySymptomDetail(title, url string) SymptomDetail {
	return SymptomDetail{
		Title:    title,
		URL:      url,
		Sections: []RepairSection{},
	}
}
