package assistant

import (
	"strings"
	"unicode/utf8"

	"partselect/parser/internal/domain"
)

var punctuation = strings.NewReplacer(
	"“", `"`, "”", `"`,
	"‘", "'", "’", "'",
	"—", "-", "–", "-",
	"…", "...",
	"®", "(R)",
	"™", "(TM)",
	"©", "(C)",
)

// windows1252EnDash is the cp1252 byte for "–".
const windows1252EnDash = 0x96

// CleanText maps typographic punctuation to ASCII and drops bytes that are
// not valid UTF-8, except the cp1252 en dash which becomes "-".
func CleanText(s string) string {
	if utf8.ValidString(s) {
		return punctuation.Replace(s)
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case r != utf8.RuneError || size > 1:
			b.WriteString(s[i : i+size])
		case s[i] == windows1252EnDash:
			b.WriteByte('-')
		}
		i += size
	}
	return punctuation.Replace(b.String())
}

func cleanAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = CleanText(v)
	}
	return out
}

// CleanRecord returns a copy of record with every text field cleaned.
func CleanRecord(record domain.PartRecord) domain.PartRecord {
	out := record.Clone()

	out.Name = CleanText(out.Name)
	out.PartNumber = CleanText(out.PartNumber)
	out.ManufacturerPart = CleanText(out.ManufacturerPart)
	out.Difficulty = CleanText(out.Difficulty)
	out.TimeEstimate = CleanText(out.TimeEstimate)
	out.ProductType = CleanText(out.ProductType)
	out.Description = CleanText(out.Description)
	out.ReplacesParts = cleanAll(out.ReplacesParts)
	out.Symptoms = cleanAll(out.Symptoms)

	for i := range out.YouMayNeed {
		out.YouMayNeed[i].Name = CleanText(out.YouMayNeed[i].Name)
	}
	for i := range out.PartVideos {
		out.PartVideos[i].Title = CleanText(out.PartVideos[i].Title)
	}
	for i := range out.ModelCompatibility {
		m := &out.ModelCompatibility[i]
		m.Brand = CleanText(m.Brand)
		m.ModelNumber = CleanText(m.ModelNumber)
		m.Description = CleanText(m.Description)
	}
	return out
}

// CleanRepairGuide returns a copy of guide with every text field cleaned.
func CleanRepairGuide(guide domain.RepairGuide) domain.RepairGuide {
	out := guide
	out.IntroText = CleanText(guide.IntroText)
	out.Symptoms = make([]domain.RepairSymptom, len(guide.Symptoms))
	for i, s := range guide.Symptoms {
		s.Title = CleanText(s.Title)
		s.Description = CleanText(s.Description)
		out.Symptoms[i] = s
	}
	out.TroubleshootingVideos = make([]domain.TroubleshootingVideo, len(guide.TroubleshootingVideos))
	for i, v := range guide.TroubleshootingVideos {
		v.Title = CleanText(v.Title)
		out.TroubleshootingVideos[i] = v
	}
	return out
}

// CleanSymptomDetail returns a copy of detail with every text field cleaned.
func CleanSymptomDetail(detail domain.SymptomDetail) domain.SymptomDetail {
	out := detail
	out.Stats.Difficulty = CleanText(detail.Stats.Difficulty)
	out.Sections = make([]domain.RepairSection, len(detail.Sections))
	for i, s := range detail.Sections {
		s.Title = CleanText(s.Title)
		s.Description = CleanText(s.Description)
		s.Instructions = cleanAll(s.Instructions)
		parts := make([]domain.RepairPart, len(s.RelatedParts))
		for j, p := range s.RelatedParts {
			p.Name = CleanText(p.Name)
			p.Text = CleanText(p.Text)
			parts[j] = p
		}
		s.RelatedParts = parts
		out.Sections[i] = s
	}
	return out
}
