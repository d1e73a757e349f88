package extract

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"partselect/parser/internal/domain"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
)

// Repair guide pages
var (
	ruleRepairIntroSentence = newRule("repair_intro_sentence", `(?i)(Repairing an? [a-z ]+?[^.<]*\.)`)
	ruleEasyRepairs         = newRule("easy_repairs_percentage", `(\d+)%.*?["“]Easy["”]`)
	ruleAverageRepairTime   = newRule("average_repair_time", `(?i)less than (\d+) minutes?`)
	ruleSymptomHref         = newRule("repair_symptom_href", `^(?:https?://www\.partselect\.com)?/Repair/([A-Za-z-]+)/([A-Za-z0-9-]+)/?$`)
	ruleReportedBy          = newRule("reported_by_customers", `(?i)(\d+)%\s*of\s*customers`)
	ruleSymptomLink         = newRule("repair_symptom_link", `(?is)<a href="(/Repair/[^/"]+/[^/"]+/)" class="row[^"]*">(.*?)</a>`)
	ruleSymptomTitle        = newRule("repair_symptom_title", `<h3 class="title-md[^"]*">([^<]+)</h3>`)
	ruleSymptomDescription  = newRule("repair_symptom_description", `<p>([^<]+)</p>`)
	ruleTroubleshooting     = newRule("troubleshooting_section", `(?is)<h2[^>]*>\s*Troubleshooting Videos\s*</h2>(.*?)(?:<h2|<footer|$)`)
	ruleTroubleshootingPair = newRule("troubleshooting_video_pairs", `(?s)<div data-yt-init="([^"]+)"[^>]*>.*?title="([^"]*)".*?alt="([^"]*)"`)
)

// Symptom pages
var (
	ruleRatedAs       = newRule("rated_as", `(?i)Rated as\s*([^|]+?)\s*(?:\||$)`)
	ruleRepairStories = newRule("repair_stories", `(?i)(\d[\d,]*)\s*repair stories`)
	ruleStepVideos    = newRule("step_by_step_videos", `(?i)(\d[\d,]*)\s*step by step videos`)
)

const (
	troubleshootingThumbnail = "https://img.youtube.com/vi/%s/maxresdefault.jpg"
	troubleshootingHeading   = "Troubleshooting Videos"
	aboutRepairHeading       = "About this repair:"
)

// isolatedStep extracts one group of values of a repair page into out.
type isolatedStep[T any] struct {
	name string
	run  func(doc *Document, out *T) (string, error)
}

// runSteps runs every step on a scratch copy of out, so a failing or
// panicking step leaves its fields at their defaults.
func runSteps[T any](doc *Document, out *T, steps []isolatedStep[T]) Report {
	report := Report{Strategies: make(map[string]string)}
	for _, step := range steps {
		strategy, err := func() (strategy string, err error) {
			defer func() {
				if r := recover(); r != nil {
					strategy = ""
					err = fmt.Errorf("extractor panicked: %v", r)
				}
			}()
			scratch := *out
			strategy, err = step.run(doc, &scratch)
			if err == nil {
				*out = scratch
			}
			return strategy, err
		}()
		if strategy != "" {
			report.Strategies[step.name] = strategy
		}
		if err != nil {
			report.Failures = append(report.Failures, FieldError{Field: step.name, Err: err})
		}
	}
	logFailures(doc.URL(), report.Failures)
	return report
}

// ExtractRepairGuide extracts the introduction, symptom list and
// troubleshooting videos of an appliance repair page.
func (e *Extractor) ExtractRepairGuide(appliance, url, html string) (domain.RepairGuide, Report) {
	guide := domain.EmptyRepairGuide(appliance, url)
	report := runSteps(NewDocument(url, html), &guide, repairGuideSteps)
	log.Debugf("Extracted repair guide %s with %d symptoms", url, len(guide.Symptoms))
	return guide, report
}

// ExtractSymptomDetail extracts the repair statistics and suspected causes of
// a symptom page.
func (e *Extractor) ExtractSymptomDetail(title, url, html string) (domain.SymptomDetail, Report) {
	detail := domain.EmptySymptomDetail(title, url)
	report := runSteps(NewDocument(url, html), &detail, symptomDetailSteps)
	log.Debugf("Extracted symptom %s with %d sections", url, len(detail.Sections))
	return detail, report
}

var repairGuideSteps = []isolatedStep[domain.RepairGuide]{
	{"repair_intro", extractRepairIntro},
	{"repair_symptoms", extractRepairSymptoms},
	{"troubleshooting_videos", extractTroubleshootingVideos},
}

var symptomDetailSteps = []isolatedStep[domain.SymptomDetail]{
	{"repair_stats", extractSymptomStats},
	{"repair_sections", extractRepairSections},
}

var repairIntroStrategies = []Strategy[string]{
	SelectorText("appliance_intro", "div.appliance-intro"),
	Map(Pattern(ruleRepairIntroSentence), cleanText),
}

func extractRepairIntro(doc *Document, guide *domain.RepairGuide) (string, error) {
	intro, strategy, ok := FirstMatch(doc, repairIntroStrategies...)
	if !ok {
		return "", ErrNotFound
	}
	guide.IntroText = intro
	if v, ok := ruleEasyRepairs.Find(intro); ok {
		if n, err := strconv.Atoi(v); err == nil {
			guide.Stats.EasyRepairsPercentage = &n
		}
	}
	if v, ok := ruleAverageRepairTime.Find(intro); ok {
		guide.Stats.AverageRepairTime = fmt.Sprintf("Less than %s minutes", v)
	}
	return strategy, nil
}

var repairSymptomStrategies = []Strategy[[]domain.RepairSymptom]{
	{Name: "symptom_rows", Run: symptomsFromRows},
	{Name: ruleSymptomLink.Name, Run: symptomsFromLinks},
}

func extractRepairSymptoms(doc *Document, guide *domain.RepairGuide) (string, error) {
	symptoms, strategy, ok := FirstMatch(doc, repairSymptomStrategies...)
	if !ok {
		return "", ErrNotFound
	}
	// Most reported first; rows without a share keep page order at the end.
	slices.SortStableFunc(symptoms, func(a, b domain.RepairSymptom) int {
		return cmp.Compare(reportedShare(b), reportedShare(a))
	})
	guide.Symptoms = symptoms
	return strategy, nil
}

func reportedShare(s domain.RepairSymptom) int {
	if s.ReportedByPercentage == nil {
		return 0
	}
	return *s.ReportedByPercentage
}

// newRepairSymptom builds a symptom from a row link. Rows without a title or
// description, or pointing outside the repair pages, are dropped.
func newRepairSymptom(href, title, description, rowText string) (domain.RepairSymptom, bool) {
	m := ruleSymptomHref.FindAll(strings.TrimSpace(href))
	if len(m) == 0 || title == "" || description == "" {
		return domain.RepairSymptom{}, false
	}
	url, err := domain.BuildSymptomURL(m[0][1], m[0][2])
	if err != nil {
		return domain.RepairSymptom{}, false
	}
	symptom := domain.RepairSymptom{
		Title:       title,
		Description: description,
		URL:         url,
		Slug:        m[0][2],
	}
	if v, ok := ruleReportedBy.Find(rowText); ok {
		if n, err := strconv.Atoi(v); err == nil {
			symptom.ReportedByPercentage = &n
			symptom.ReportedByText = fmt.Sprintf("%d%% of customers", n)
		}
	}
	return symptom, true
}

func symptomsFromRows(doc *Document) ([]domain.RepairSymptom, bool) {
	q, err := doc.Query()
	if err != nil {
		return nil, false
	}
	var symptoms []domain.RepairSymptom
	q.Find(`a.row[href*="/Repair/"]`).Each(func(_ int, row *goquery.Selection) {
		href, _ := row.Attr("href")
		symptom, ok := newRepairSymptom(href,
			cleanText(row.Find("h3").First().Text()),
			cleanText(row.Find("p").First().Text()),
			cleanText(row.Text()),
		)
		if ok {
			symptoms = append(symptoms, symptom)
		}
	})
	return symptoms, len(symptoms) > 0
}

func symptomsFromLinks(doc *Document) ([]domain.RepairSymptom, bool) {
	var symptoms []domain.RepairSymptom
	for _, m := range ruleSymptomLink.FindAll(doc.HTML()) {
		title, _ := ruleSymptomTitle.Find(m[2])
		description, _ := ruleSymptomDescription.Find(m[2])
		symptom, ok := newRepairSymptom(m[1], cleanText(title), cleanText(description), cleanText(m[2]))
		if ok {
			symptoms = append(symptoms, symptom)
		}
	}
	return symptoms, len(symptoms) > 0
}

var troubleshootingStrategies = []Strategy[[]domain.TroubleshootingVideo]{
	{Name: "yt_init_containers", Run: troubleshootingFromContainers},
	{Name: ruleTroubleshootingPair.Name, Run: troubleshootingFromPairs},
}

func extractTroubleshootingVideos(doc *Document, guide *domain.RepairGuide) (string, error) {
	videos, strategy, ok := FirstMatch(doc, troubleshootingStrategies...)
	if !ok {
		return "", ErrNotFound
	}
	guide.TroubleshootingVideos = videos
	return strategy, nil
}

type troubleshootingSet struct {
	videos []domain.TroubleshootingVideo
	seen   map[string]struct{}
}

func (t *troubleshootingSet) add(id, title, alt string) {
	if !ruleYouTubeID.MatchString(id) {
		return
	}
	if _, ok := t.seen[id]; ok {
		return
	}
	t.seen[id] = struct{}{}
	if title = cleanText(title); title == "" {
		title = cleanText(alt)
	}
	if title == "" {
		title = troubleshootingHeading
	}
	t.videos = append(t.videos, domain.TroubleshootingVideo{
		Title:        title,
		URL:          youTubeWatchURL(id),
		VideoID:      id,
		ThumbnailURL: fmt.Sprintf(troubleshootingThumbnail, id),
	})
}

// troubleshootingFromContainers reads the video containers that follow the
// "Troubleshooting Videos" heading.
func troubleshootingFromContainers(doc *Document) ([]domain.TroubleshootingVideo, bool) {
	q, err := doc.Query()
	if err != nil {
		return nil, false
	}
	set := &troubleshootingSet{seen: make(map[string]struct{})}
	q.Find("h2").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if cleanText(h.Text()) != troubleshootingHeading {
			return true
		}
		section := h.NextUntil("h2")
		section.Find("[data-yt-init]").AddSelection(section.Filter("[data-yt-init]")).Each(func(_ int, c *goquery.Selection) {
			id, _ := c.Attr("data-yt-init")
			img := c.Find("img").First()
			title, _ := img.Attr("title")
			alt, _ := img.Attr("alt")
			set.add(strings.TrimSpace(id), title, alt)
		})
		return false
	})
	return set.videos, len(set.videos) > 0
}

func troubleshootingFromPairs(doc *Document) ([]domain.TroubleshootingVideo, bool) {
	section, ok := ruleTroubleshooting.Find(doc.HTML())
	if !ok {
		return nil, false
	}
	set := &troubleshootingSet{seen: make(map[string]struct{})}
	for _, m := range ruleTroubleshootingPair.FindAll(section) {
		set.add(strings.TrimSpace(m[1]), m[2], m[3])
	}
	return set.videos, len(set.videos) > 0
}

func extractSymptomStats(doc *Document, detail *domain.SymptomDetail) (string, error) {
	q, err := doc.Query()
	if err != nil {
		return "", err
	}
	var about string
	q.Find("h3").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if cleanText(h.Text()) != aboutRepairHeading {
			return true
		}
		var items []string
		h.NextFiltered("ul").Find("li").Each(func(_ int, li *goquery.Selection) {
			if text := cleanText(li.Text()); text != "" {
				items = append(items, text)
			}
		})
		about = strings.Join(items, " | ")
		return false
	})
	if about == "" {
		return "", ErrNotFound
	}

	var found []string
	if v, ok := ruleRatedAs.Find(about); ok {
		detail.Stats.Difficulty = v
		found = append(found, ruleRatedAs.Name)
	}
	if n, ok := findCount(ruleRepairStories, about); ok {
		detail.Stats.RepairStoriesCount = &n
		found = append(found, ruleRepairStories.Name)
	}
	if n, ok := findCount(ruleStepVideos, about); ok {
		detail.Stats.StepByStepVideosCount = &n
		found = append(found, ruleStepVideos.Name)
	}
	if len(found) == 0 {
		return "", ErrNotFound
	}
	return joinStrategies(found...), nil
}

func findCount(rule Rule, text string) (int, bool) {
	v, ok := rule.Find(text)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.ReplaceAll(v, ",", ""))
	return n, err == nil
}

// extractRepairSections reads every "h2.section-title" cause with the
// description block that follows it.
func extractRepairSections(doc *Document, detail *domain.SymptomDetail) (string, error) {
	q, err := doc.Query()
	if err != nil {
		return "", err
	}
	var sections []domain.RepairSection
	q.Find("h2.section-title").Each(func(_ int, h *goquery.Selection) {
		title := cleanText(h.Text())
		if title == "" {
			return
		}
		id, _ := h.Attr("id")
		body := h.NextUntil("h2.section-title, div.back-to-top").Filter("div.symptom-list__desc").First()
		sections = append(sections, domain.RepairSection{
			ID:           strings.TrimSpace(id),
			Title:        title,
			Description:  cleanText(body.Find("div.col-lg-6 p").First().Text()),
			Instructions: sectionInstructions(body),
			RelatedParts: sectionParts(body),
		})
	})
	if len(sections) == 0 {
		return "", ErrNotFound
	}
	detail.Sections = sections
	return "section_title_blocks", nil
}

func sectionInstructions(body *goquery.Selection) []string {
	steps := []string{}
	body.Find("ol").First().Find("li").Each(func(_ int, li *goquery.Selection) {
		if step := cleanText(li.Text()); step != "" {
			steps = append(steps, step)
		}
	})
	return steps
}

// sectionParts keeps links to replacement parts; other links of the block
// point to articles and videos.
func sectionParts(body *goquery.Selection) []domain.RepairPart {
	parts := []domain.RepairPart{}
	body.Find("a[href][title]").Each(func(_ int, a *goquery.Selection) {
		title := cleanText(a.AttrOr("title", ""))
		if !strings.Contains(strings.ToLower(title), "replacement") && !strings.Contains(title, "OEM") {
			return
		}
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if strings.HasPrefix(href, "/") {
			href = domain.BaseURL + href
		}
		parts = append(parts, domain.RepairPart{
			Name: title,
			URL:  href,
			Text: cleanText(a.Text()),
		})
	})
	return parts
}
