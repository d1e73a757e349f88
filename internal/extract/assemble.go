package extract

import (
	"fmt"

	"partselect/parser/internal/domain"
)

const maxRelatedProducts = 6

// Assemble normalizes raw extractor output into a record. It is a pure
// function: values that fail coercion are reported and left at their
// defaults, and the returned record shares no memory with raw.
func Assemble(raw RawFields) (domain.PartRecord, []FieldError) {
	record := domain.EmptyPartRecord(raw.URL)
	var failures []FieldError
	malformed := func(field, value string) {
		failures = append(failures, FieldError{
			Field: field,
			Err:   fmt.Errorf("%w: %q", ErrMalformedValue, value),
		})
	}

	record.Name = cleanText(raw.Name)
	record.PartNumber = cleanText(raw.PartNumber)
	record.ManufacturerPart = cleanText(raw.ManufacturerPart)
	record.TimeEstimate = cleanText(raw.TimeEstimate)
	record.Description = cleanText(raw.Description)
	record.ProductType = domain.NormalizeProductType(cleanText(raw.ProductType))
	record.InStock = raw.InStock

	if raw.Price != "" {
		if price, ok := parsePrice(raw.Price); ok {
			record.Price = &price
		} else {
			malformed("price", raw.Price)
		}
	}

	if raw.Difficulty != "" {
		if d, ok := domain.ParseDifficulty(raw.Difficulty); ok {
			record.Difficulty = d.String()
		} else {
			malformed("difficulty", raw.Difficulty)
		}
	}

	if raw.Rating != "" {
		if rating, ok := parseRating(raw.Rating); ok {
			record.Rating = rating
		} else {
			malformed("rating", raw.Rating)
		}
	}

	if raw.ReviewCount != "" {
		if count, ok := parseCount(raw.ReviewCount); ok {
			record.ReviewCount = count
		} else {
			malformed("review_count", raw.ReviewCount)
		}
	}

	record.Symptoms = splitAndClean(raw.Symptoms, "|")
	record.ReplacesParts = splitAndClean(raw.ReplacesParts, ",")
	record.YouMayNeed = assembleRelated(raw.YouMayNeed)
	record.PartVideos = assembleVideos(raw.PartVideos)
	record.ModelCompatibility = assembleModels(raw.Models)

	return record, failures
}

// assembleRelated drops names too short to be real products (parse noise),
// removes duplicates and keeps the first six in document order.
func assembleRelated(raw []RawProduct) []domain.RelatedProduct {
	out := []domain.RelatedProduct{}
	seen := make(map[string]struct{})
	for _, p := range raw {
		name := cleanText(p.Name)
		if len(name) < minRelatedNameSize {
			continue
		}
		key := dedupeKey(name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		price, _ := parsePrice(p.Price)
		out = append(out, domain.RelatedProduct{Name: name, Price: price})
		if len(out) == maxRelatedProducts {
			break
		}
	}
	return out
}

func assembleVideos(raw []domain.Video) []domain.Video {
	out := []domain.Video{}
	seen := make(map[string]struct{})
	for _, v := range raw {
		if !ruleYouTubeID.MatchString(v.VideoID) {
			continue
		}
		if _, ok := seen[v.VideoID]; ok {
			continue
		}
		seen[v.VideoID] = struct{}{}
		title := cleanText(v.Title)
		if title == "" {
			title = defaultVideoTitle
		}
		out = append(out, domain.Video{
			Title:   title,
			URL:     youTubeWatchURL(v.VideoID),
			VideoID: v.VideoID,
		})
	}
	return out
}

func assembleModels(raw []domain.CompatibleModel) []domain.CompatibleModel {
	out := []domain.CompatibleModel{}
	seen := make(map[string]struct{})
	for _, m := range raw {
		m = domain.CompatibleModel{
			Brand:       cleanText(m.Brand),
			ModelNumber: cleanText(m.ModelNumber),
			Description: cleanText(m.Description),
		}
		if m.ModelNumber == "" {
			continue
		}
		key := m.Brand + "\x00" + m.ModelNumber
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, m)
	}
	return out
}
