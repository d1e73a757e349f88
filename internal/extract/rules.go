package extract

import (
	"regexp"
	"strings"
)

// Rule is a named regular expression over the serialized product page.
// Capture group 1 carries the value. Rules are tied to the current
// partselect.com markup; when the site changes, the failing rule is updated here.
type Rule struct {
	Name string
	re   *regexp.Regexp
}

func newRule(name, expr string) Rule {
	return Rule{Name: name, re: regexp.MustCompile(expr)}
}

// Find returns the trimmed first capture group of the first match.
func (r Rule) Find(s string) (string, bool) {
	m := r.re.FindStringSubmatch(s)
	if len(m) < 2 {
		return "", false
	}
	v := strings.TrimSpace(m[1])
	return v, v != ""
}

// FindAll returns every match with its capture groups.
func (r Rule) FindAll(s string) [][]string {
	return r.re.FindAllStringSubmatch(s, -1)
}

// Index returns the [start, end) offsets of the first match or nil.
func (r Rule) Index(s string) []int {
	return r.re.FindStringIndex(s)
}

// Name
var (
	ruleTitleTag = newRule("title_tag", `(?is)<title[^>]*>\s*([^<|]+?)\s*(?:[|–-]\s*PartSelect[^<]*)?</title>`)
)

// Price
var (
	rulePriceContent         = newRule("price_content_attr", `itemprop="price"\s+content="([^"]*)"`)
	rulePriceContentReversed = newRule("price_content_attr_reversed", `content="([^"]*)"\s+itemprop="price"`)
	rulePartPriceClass       = newRule("js_part_price", `class="js-partPrice"[^>]*>\s*\$?\s*([^<\s]+)`)
	rulePriceCurrency        = newRule("price_currency_span", `<span class="price__currency">\$</span>\s*([^<\s]+)`)
	rulePriceLabel           = newRule("price_label", `(?i:price)[:\s]*\$\s*(\d[\d,]*(?:\.\d+)?)`)
	ruleDollarAmount         = newRule("dollar_amount", `\$\s*(\d[\d,]*(?:\.\d+)?)`)
	ruleUSDAmount            = newRule("usd_amount", `(\d[\d,]*(?:\.\d+)?)\s*USD`)
)

// Part numbers
var (
	rulePartSelectNumber  = newRule("partselect_number_label", `(?i:PartSelect Number)[:\s]*(?:<[^>]*>\s*)*([A-Z0-9]+)`)
	rulePSNumber          = newRule("ps_number_label", `(?i:PS Number)[:\s]*(?:<[^>]*>\s*)*([A-Z0-9]+)`)
	rulePartNumberFromURL = newRule("part_number_from_url", `(?i)/(PS\d+)-1\.htm`)
	ruleMPNMicrodata      = newRule("mpn_microdata", `itemprop="mpn"[^>]*>\s*([A-Za-z0-9-]+)\s*<`)
	ruleMPNLabelSpan      = newRule("mpn_label_span", `(?i:Manufacturer Part Number)[^>]*>\s*([A-Z0-9-]+)\s*</span>`)
	ruleMPNLabelNextSpan  = newRule("mpn_label_next_span", `(?i:Manufacturer Part Number):?\s*<span[^>]*>\s*([A-Z0-9-]+)\s*</span>`)
	ruleMPNMetaOEM        = newRule("mpn_meta_oem", `content="OEM ([A-Z0-9-]+) -`)
	ruleMPNLabelText      = newRule("mpn_label_text", `(?i:Manufacturer Part Number)[:\s]+([A-Z0-9-]+)`)
	ruleOEMPartNumber     = newRule("oem_part_number_text", `(?i:OEM Part Number)[:\s]+([A-Z0-9-]+)`)
)

// Installation
var (
	ruleDifficultyBold = newRule("difficulty_bold", `<p class="bold">\s*(Really Easy|Very Easy|Easy|Moderate|Hard)(?:&nbsp;|\s)*</p>`)
	ruleDifficultyText = newRule("difficulty_level_text", `(?i:Difficulty Level):\s*([^.<\n]+)`)
	ruleTimeBold       = newRule("time_bold", `<p class="bold">\s*((?:Less than|More than) \d+ (?:mins?|hours?)|\d+\s*-\s*\d+\s*(?:mins?|hours?))(?:&nbsp;|\s)*</p>`)
	ruleTimeLessThan   = newRule("time_less_than", `(Less than \d+ mins?)`)
	ruleTimeRange      = newRule("time_range", `(\d+\s*-\s*\d+\s*mins?)`)
)

// Reviews
var (
	ruleRating      = newRule("rating_out_of_five", `(\d+(?:\.\d+)?)\s*/\s*5\.0`)
	ruleReviewCount = newRule("review_count_text", `(\d[\d,]*)\s*(?i:Reviews?)\b`)
)

// Description
var (
	ruleDescriptionDiv     = newRule("description_itemprop_div", `(?s)<div itemprop="description"[^>]*>(.*?)</div>`)
	ruleDescriptionSection = newRule("description_section", `(?s)<div class="pd__description[^>]*>.*?<div[^>]*>([^<]+)</div>`)
	ruleDescriptionGeneric = newRule("description_itemprop_generic", `itemprop="description"[^>]*>([^<]+)`)
	ruleDescriptionClass   = newRule("description_class", `class="description"[^>]*>([^<]+)`)
	ruleMetaDescription    = newRule("meta_description", `<meta name="description" content="([^"]+)"`)
)

// Product type
var (
	ruleWorksWithBlock = newRule("works_with_block", `<div class="bold mb-1">This part works with the following products:</div>\s*([^<\n]+)`)
	ruleWorksWithText  = newRule("works_with_text", `This part works with the following products:\s*(?:</div>\s*)?([^<\n]+)`)
	ruleModelTypeAttr  = newRule("model_type_attr", `data-modeltype="([^"]+)"`)
)

// Troubleshooting
var (
	ruleSymptomsBlock = newRule("symptoms_block", `<div class="bold mb-1">This part fixes the following symptoms:</div>\s*([^<\n]+)`)
	ruleSymptomsText  = newRule("symptoms_text", `This part fixes the following symptoms:\s*(?:</div>\s*)?([^<\n]+)`)
	ruleReplacesBlock = newRule("replaces_block", `<div class="bold mb-1">Part#\s*[A-Za-z0-9-]+ replaces these:</div>\s*<div[^>]*>\s*([^<]+)`)
	ruleReplacesText  = newRule("replaces_text", `Part#\s*[A-Za-z0-9-]+ replaces these:\s*(?:</div>\s*)?([^<\n]+)`)
	ruleReplacesLabel = regexp.MustCompile(`^Part#\s*\S+ replaces these:?$`)
)

// Related products
var (
	ruleRelatedStart   = newRule("related_section_start", `(?is)id="RelatedParts".*?<div data-collapsible[^>]*>`)
	ruleRelatedEnd     = newRule("related_section_end", `(?i)<div class="expanded[^>]*\bid="`)
	ruleRelatedBlock   = newRule("related_part_block", `<div class="[^"]*\bpd__related-part\b[^"]*">`)
	ruleRelatedName    = newRule("related_part_name", `<a class="bold"[^>]*>([^<]+)</a>`)
	ruleRelatedPrice   = newRule("related_part_price", `<span class="price__currency">\$</span>\s*([0-9][0-9.,]*)`)
	ruleRelatedPairs   = newRule("related_part_pairs", `(?s)<a class="bold"[^>]*>([^<]+)</a>.*?<span class="price__currency">\$</span>\s*([0-9][0-9.,]*)`)
	minRelatedNameSize = 6
)

// Videos
var (
	ruleYouTubeThumbID  = newRule("youtube_thumbnail_id", `/vi/([A-Za-z0-9_-]{11})/`)
	ruleYouTubeThumbURL = newRule("youtube_thumbnail_url", `https?://img\.youtube\.com/vi/([A-Za-z0-9_-]{11})/[^"'\s]*`)
	ruleYouTubeID       = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	maxFallbackVideos   = 5
)

// Model cross reference
var (
	ruleModelRow = newRule("model_cross_reference_row", `<div class="row">\s*<div class="col-6 col-md-3">([^<]+)</div>\s*<a class="col-6 col-md-3 col-lg-2"[^>]*>([^<]+)</a>\s*<div class="col col-md-6 col-lg-7">\s*([^<]+?)\s*</div>\s*</div>`)
)
