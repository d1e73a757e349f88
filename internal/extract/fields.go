package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"partselect/parser/internal/domain"

	"github.com/PuerkitoBio/goquery"
)

var (
	// ErrNotFound means no strategy of a field produced a plausible value.
	ErrNotFound = errors.New("no strategy matched")
	// ErrMalformedValue means a matched value failed type coercion.
	ErrMalformedValue = errors.New("malformed value")
)

// RawProduct is a related product as captured, before numeric coercion.
type RawProduct struct {
	Name  string
	Price string
}

// RawFields holds extractor output as captured from the page. The assembler
// turns it into a domain.PartRecord.
type RawFields struct {
	URL              string
	Name             string
	Price            string
	PartNumber       string
	ManufacturerPart string
	ReplacesParts    string
	Difficulty       string
	TimeEstimate     string
	Rating           string
	ReviewCount      string
	ProductType      string
	InStock          bool
	Description      string
	Symptoms         string
	YouMayNeed       []RawProduct
	PartVideos       []domain.Video
	Models           []domain.CompatibleModel
}

// fieldFunc extracts one field or field group into raw. It returns the name of
// the winning strategy for diagnostics.
type fieldFunc func(ctx context.Context, doc *Document, src Source, raw *RawFields) (string, error)

type fieldExtractor struct {
	name string
	run  fieldFunc
}

// fieldExtractors is the dispatch table of the orchestrator. Order only
// matters for log readability; extractors do not depend on each other.
var fieldExtractors = []fieldExtractor{
	{"name", extractName},
	{"price", extractPrice},
	{"part_numbers", extractPartNumbers},
	{"installation", extractInstallation},
	{"reviews", extractReviews},
	{"in_stock", extractStock},
	{"description", extractDescription},
	{"product_type", extractProductType},
	{"troubleshooting", extractTroubleshooting},
	{"you_may_need", extractRelatedProducts},
	{"part_videos", extractVideos},
	{"model_compatibility", extractModelCompatibility},
}

var nameStrategies = []Strategy[string]{
	SelectorText("title_lg_itemprop", `h1.title-lg[itemprop="name"]`),
	SelectorText("title_lg", "h1.title-lg"),
	SelectorText("h1_itemprop", `h1[itemprop="name"]`),
	SelectorText("h1", "h1"),
	Map(Pattern(ruleTitleTag), cleanText),
}

func extractName(_ context.Context, doc *Document, _ Source, raw *RawFields) (string, error) {
	v, strategy, ok := FirstMatch(doc, nameStrategies...)
	if !ok {
		return "", ErrNotFound
	}
	raw.Name = v
	return strategy, nil
}

var priceStrategies = []Strategy[string]{
	Accept(SelectorAttr("price_microdata", `[itemprop="price"]`, "content"), isPrice),
	Accept(Pattern(rulePriceContent), isPrice),
	Accept(Pattern(rulePriceContentReversed), isPrice),
	Accept(SelectorText("js_part_price_text", ".js-partPrice"), isPrice),
	Accept(Pattern(rulePartPriceClass), isPrice),
	Accept(Pattern(rulePriceCurrency), isPrice),
	Accept(Pattern(rulePriceLabel), isPrice),
	Accept(Pattern(ruleDollarAmount), isPrice),
	Accept(Pattern(ruleUSDAmount), isPrice),
}

func extractPrice(_ context.Context, doc *Document, _ Source, raw *RawFields) (string, error) {
	v, strategy, ok := FirstMatch(doc, priceStrategies...)
	if !ok {
		return "", ErrNotFound
	}
	raw.Price = v
	return strategy, nil
}

var partNumberStrategies = []Strategy[string]{
	Accept(SelectorText("product_id_microdata", `[itemprop="productID"]`), isPartCode),
	Accept(Pattern(rulePartSelectNumber), isPartCode),
	Accept(Pattern(rulePSNumber), isPartCode),
	{
		Name: rulePartNumberFromURL.Name,
		Run: func(doc *Document) (string, bool) {
			v, ok := rulePartNumberFromURL.Find(doc.URL())
			return strings.ToUpper(v), ok
		},
	},
}

// Manufacturer part numbers are matched on structure only so the same rules
// work for every brand sold on the site.
var manufacturerPartStrategies = []Strategy[string]{
	Accept(SelectorText("mpn_microdata_element", `[itemprop="mpn"]`), isPartCode),
	Accept(SelectorAttr("mpn_microdata_content", `meta[itemprop="mpn"]`, "content"), isPartCode),
	Accept(Pattern(ruleMPNMicrodata), isPartCode),
	Accept(Pattern(ruleMPNLabelSpan), isPartCode),
	Accept(Pattern(ruleMPNLabelNextSpan), isPartCode),
	Accept(Pattern(ruleMPNMetaOEM), isPartCode),
	Accept(Pattern(ruleMPNLabelText), isPartCode),
	Accept(Pattern(ruleOEMPartNumber), isPartCode),
}

func extractPartNumbers(_ context.Context, doc *Document, _ Source, raw *RawFields) (string, error) {
	ps, psStrategy, psOK := FirstMatch(doc, partNumberStrategies...)
	mpn, mpnStrategy, mpnOK := FirstMatch(doc, manufacturerPartStrategies...)
	if psOK {
		raw.PartNumber = ps
	}
	if mpnOK {
		raw.ManufacturerPart = mpn
	}
	switch {
	case !psOK && !mpnOK:
		return "", ErrNotFound
	case !mpnOK:
		return psStrategy, fmt.Errorf("manufacturer part: %w", ErrNotFound)
	case !psOK:
		return mpnStrategy, fmt.Errorf("partselect number: %w", ErrNotFound)
	}
	return joinStrategies(psStrategy, mpnStrategy), nil
}

func joinStrategies(names ...string) string {
	var parts []string
	for _, n := range names {
		if n != "" {
			parts = append(parts, n)
		}
	}
	return strings.Join(parts, "+")
}

func isDifficulty(text string) bool {
	_, ok := domain.ParseDifficulty(text)
	return ok
}

var difficultyStrategies = []Strategy[string]{
	{
		Name: "repair_rating_bold",
		Run: func(doc *Document) (string, bool) {
			q, err := doc.Query()
			if err != nil {
				return "", false
			}
			var difficulty string
			q.Find("p.bold").EachWithBreak(func(_ int, s *goquery.Selection) bool {
				if d, ok := domain.ParseDifficulty(cleanText(s.Text())); ok {
					difficulty = d.String()
				}
				return difficulty == ""
			})
			return difficulty, difficulty != ""
		},
	},
	Pattern(ruleDifficultyBold),
	Map(Accept(Map(Pattern(ruleDifficultyText), cleanText), isDifficulty), canonicalDifficulty),
}

func canonicalDifficulty(text string) string {
	d, _ := domain.ParseDifficulty(text)
	return d.String()
}

var timeEstimateStrategies = []Strategy[string]{
	Map(Pattern(ruleTimeBold), cleanText),
	Map(Pattern(ruleTimeLessThan), cleanText),
	Map(Pattern(ruleTimeRange), cleanText),
}

func extractInstallation(_ context.Context, doc *Document, _ Source, raw *RawFields) (string, error) {
	difficulty, dStrategy, dOK := FirstMatch(doc, difficultyStrategies...)
	estimate, tStrategy, tOK := FirstMatch(doc, timeEstimateStrategies...)
	if dOK {
		raw.Difficulty = difficulty
	}
	if tOK {
		raw.TimeEstimate = estimate
	}
	switch {
	case !dOK && !tOK:
		return "", ErrNotFound
	case !dOK:
		return tStrategy, fmt.Errorf("difficulty: %w", ErrNotFound)
	case !tOK:
		return dStrategy, fmt.Errorf("time estimate: %w", ErrNotFound)
	}
	return joinStrategies(dStrategy, tStrategy), nil
}

var ratingStrategies = []Strategy[string]{
	Accept(SelectorAttr("rating_microdata", `[itemprop="ratingValue"]`, "content"), isRating),
	Accept(Pattern(ruleRating), isRating),
}

var reviewCountStrategies = []Strategy[string]{
	Accept(SelectorAttr("review_count_microdata", `[itemprop="reviewCount"]`, "content"), isCount),
	Accept(Pattern(ruleReviewCount), isCount),
}

func extractReviews(_ context.Context, doc *Document, _ Source, raw *RawFields) (string, error) {
	rating, rStrategy, rOK := FirstMatch(doc, ratingStrategies...)
	count, cStrategy, cOK := FirstMatch(doc, reviewCountStrategies...)
	if rOK {
		raw.Rating = rating
	}
	if cOK {
		raw.ReviewCount = count
	}
	if !rOK && !cOK {
		return "", ErrNotFound
	}
	return joinStrategies(rStrategy, cStrategy), nil
}

const inStockMarker = "in stock"

// extractStock never fails: no "in stock" text means the part is unavailable.
func extractStock(_ context.Context, doc *Document, _ Source, raw *RawFields) (string, error) {
	text, err := doc.VisibleText()
	strategy := "visible_text"
	if err != nil {
		text = doc.HTML()
		strategy = "raw_html"
	}
	raw.InStock = strings.Contains(strings.ToLower(dedupeKey(text)), inStockMarker)
	return strategy, nil
}

// The structured description block is preferred to meta description, which
// the site truncates for search engines.
var descriptionStrategies = []Strategy[string]{
	SelectorText("description_itemprop_div", `div[itemprop="description"]`),
	SelectorText("description_section", ".pd__description div"),
	Map(Pattern(ruleDescriptionDiv), cleanText),
	Map(Pattern(ruleDescriptionSection), cleanText),
	Map(Pattern(ruleDescriptionGeneric), cleanText),
	Map(Pattern(ruleDescriptionClass), cleanText),
	Map(Pattern(ruleMetaDescription), trimMetaDescription),
}

func extractDescription(_ context.Context, doc *Document, _ Source, raw *RawFields) (string, error) {
	v, strategy, ok := FirstMatch(doc, descriptionStrategies...)
	if !ok {
		return "", ErrNotFound
	}
	raw.Description = v
	return strategy, nil
}

// trimMetaDescription reduces "OEM W10321304 - Door shelf bin. Fixes ..." to
// its descriptive sentence.
func trimMetaDescription(text string) string {
	text = cleanText(text)
	if strings.Contains(text, "OEM") && strings.Contains(text, " - ") {
		parts := strings.SplitN(text, " - ", 2)
		sentence, _, _ := strings.Cut(parts[1], ".")
		if sentence = strings.TrimSpace(sentence); sentence != "" {
			return sentence
		}
	}
	return text
}

const worksWithLabel = "This part works with the following products:"

var productTypeStrategies = []Strategy[string]{
	LabeledBlock("works_with_label", func(label string) bool { return label == worksWithLabel }),
	Map(Pattern(ruleWorksWithBlock), cleanText),
	Map(Pattern(ruleWorksWithText), cleanText),
	Pattern(ruleModelTypeAttr),
}

func extractProductType(_ context.Context, doc *Document, _ Source, raw *RawFields) (string, error) {
	v, strategy, ok := FirstMatch(doc, productTypeStrategies...)
	if !ok {
		return "", ErrNotFound
	}
	raw.ProductType = v
	return strategy, nil
}

const symptomsLabel = "This part fixes the following symptoms:"

var symptomsStrategies = []Strategy[string]{
	LabeledBlock("symptoms_label", func(label string) bool { return label == symptomsLabel }),
	Map(Pattern(ruleSymptomsBlock), cleanText),
	Map(Pattern(ruleSymptomsText), cleanText),
}

var replacesStrategies = []Strategy[string]{
	LabeledBlock("replaces_label", ruleReplacesLabel.MatchString),
	Map(Pattern(ruleReplacesBlock), cleanText),
	Map(Pattern(ruleReplacesText), cleanText),
}

func extractTroubleshooting(_ context.Context, doc *Document, _ Source, raw *RawFields) (string, error) {
	symptoms, sStrategy, sOK := FirstMatch(doc, symptomsStrategies...)
	replaces, rStrategy, rOK := FirstMatch(doc, replacesStrategies...)
	if sOK {
		raw.Symptoms = symptoms
	}
	if rOK {
		raw.ReplacesParts = replaces
	}
	if !sOK && !rOK {
		return "", ErrNotFound
	}
	return joinStrategies(sStrategy, rStrategy), nil
}

// relatedSection returns the "You May Also Need" container, bounded by the
// start of the next expandable section so later sections are not captured.
func relatedSection(page string) (string, bool) {
	start := ruleRelatedStart.Index(page)
	if start == nil {
		return "", false
	}
	section := page[start[1]:]
	if end := ruleRelatedEnd.Index(section); end != nil {
		section = section[:end[0]]
	}
	return section, true
}

// splitBlocks cuts section at every occurrence of the block marker. Text
// before the first marker is discarded.
func splitBlocks(section string, marker Rule) []string {
	bounds := marker.re.FindAllStringIndex(section, -1)
	blocks := make([]string, 0, len(bounds))
	for i, b := range bounds {
		end := len(section)
		if i+1 < len(bounds) {
			end = bounds[i+1][0]
		}
		blocks = append(blocks, section[b[1]:end])
	}
	return blocks
}

var relatedStrategies = []Strategy[[]RawProduct]{
	{
		Name: "related_part_blocks",
		Run: func(doc *Document) ([]RawProduct, bool) {
			section, ok := relatedSection(doc.HTML())
			if !ok {
				return nil, false
			}
			var products []RawProduct
			for _, block := range splitBlocks(section, ruleRelatedBlock) {
				name, ok := ruleRelatedName.Find(block)
				if !ok {
					continue
				}
				price, _ := ruleRelatedPrice.Find(block)
				products = append(products, RawProduct{Name: cleanText(name), Price: price})
			}
			return products, len(products) > 0
		},
	},
	{
		Name: ruleRelatedPairs.Name,
		Run: func(doc *Document) ([]RawProduct, bool) {
			section, ok := relatedSection(doc.HTML())
			if !ok {
				return nil, false
			}
			var products []RawProduct
			for _, m := range ruleRelatedPairs.FindAll(section) {
				products = append(products, RawProduct{Name: cleanText(m[1]), Price: m[2]})
			}
			return products, len(products) > 0
		},
	},
}

func extractRelatedProducts(_ context.Context, doc *Document, _ Source, raw *RawFields) (string, error) {
	products, strategy, ok := FirstMatch(doc, relatedStrategies...)
	if !ok {
		return "", ErrNotFound
	}
	raw.YouMayNeed = products
	return strategy, nil
}

const defaultVideoTitle = "Installation Video"

func youTubeWatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

var videoStrategies = []Strategy[[]domain.Video]{
	{Name: "iframe_containers", Run: videosFromContainers},
	{Name: "yt_init_containers", Run: videosFromYTInit},
	{Name: ruleYouTubeThumbURL.Name, Run: videosFromThumbnails},
}

// extractVideos expands the video gallery first; a failed expansion falls back
// to the initial HTML, where thumbnails are usually already present.
func extractVideos(ctx context.Context, doc *Document, src Source, raw *RawFields) (string, error) {
	target := doc
	if src != nil {
		if updated, err := src.Trigger(ctx, domain.SectionVideoGallery); err == nil && updated != "" {
			target = NewDocument(doc.URL(), updated)
		}
	}
	videos, strategy, ok := FirstMatch(target, videoStrategies...)
	if !ok {
		return "", ErrNotFound
	}
	raw.PartVideos = videos
	return strategy, nil
}

// extractModelCompatibility needs the cross reference section expanded: it is
// not part of the initial HTML.
func extractModelCompatibility(ctx context.Context, doc *Document, src Source, raw *RawFields) (string, error) {
	if src == nil {
		return "", fmt.Errorf("model cross reference: no interactive source")
	}
	updated, err := src.Trigger(ctx, domain.SectionModelCrossReference)
	if err != nil {
		return "", fmt.Errorf("failed to expand model cross reference: %w", err)
	}
	models, strategy, ok := FirstMatch(NewDocument(doc.URL(), updated), modelStrategies...)
	if !ok {
		return "", ErrNotFound
	}
	raw.Models = models
	return strategy, nil
}

var modelStrategies = []Strategy[[]domain.CompatibleModel]{
	{
		Name: ruleModelRow.Name,
		Run: func(doc *Document) ([]domain.CompatibleModel, bool) {
			var models []domain.CompatibleModel
			for _, m := range ruleModelRow.FindAll(doc.HTML()) {
				models = append(models, domain.CompatibleModel{
					Brand:       cleanText(m[1]),
					ModelNumber: cleanText(m[2]),
					Description: cleanText(m[3]),
				})
			}
			return models, len(models) > 0
		},
	},
	{Name: "cross_reference_rows", Run: modelsFromRows},
}
