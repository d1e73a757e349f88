package domain

// RelatedProduct is an entry of the "You May Also Need" section
type RelatedProduct struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// Video is a YouTube installation video attached to a part page
type Video struct {
	Title   string `json:"title"`
	URL     string `json:"url"`      // https://www.youtube.com/watch?v={video_id}
	VideoID string `json:"video_id"` // 11-char YouTube ID
}

// CompatibleModel is one row of the model cross reference table
type CompatibleModel struct {
	Brand       string `json:"brand"`
	ModelNumber string `json:"model_number"`
	Description string `json:"description"`
}

// PartRecord is the structured result of extracting a single part page.
// Every field is independently optional; Price is nil when absent.
type PartRecord struct {
	URL                string            `json:"url"`
	Name               string            `json:"name"`
	Price              *float64          `json:"price"`
	PartNumber         string            `json:"part_number"`
	ManufacturerPart   string            `json:"manufacturer_part"`
	ReplacesParts      []string          `json:"replaces_parts"`
	Difficulty         string            `json:"difficulty"`
	TimeEstimate       string            `json:"time_estimate"`
	Rating             float64           `json:"rating"`
	ReviewCount        int               `json:"review_count"`
	ProductType        string            `json:"product_type"`
	InStock            bool              `json:"in_stock"`
	Description        string            `json:"description"`
	YouMayNeed         []RelatedProduct  `json:"you_may_need"`
	Symptoms           []string          `json:"symptoms"`
	PartVideos         []Video           `json:"part_videos"`
	ModelCompatibility []CompatibleModel `json:"model_compatibility"`
}

// EmptyPartRecord returns a record for url with every field at its default.
// Lists are non-nil so they serialize as [] instead of null.
func EmptyPartRecord(url string) PartRecord {
	return PartRecord{
		URL:                url,
		ReplacesParts:      []string{},
		YouMayNeed:         []RelatedProduct{},
		Symptoms:           []string{},
		PartVideos:         []Video{},
		ModelCompatibility: []CompatibleModel{},
	}
}

// Clone returns a deep copy so callers never share slices with a cached record.
func (r PartRecord) Clone() PartRecord {
	out := r
	if r.Price != nil {
		p := *r.Price
		out.Price = &p
	}
	out.ReplacesParts = append([]string{}, r.ReplacesParts...)
	out.Symptoms = append([]string{}, r.Symptoms...)
	out.YouMayNeed = append([]RelatedProduct{}, r.YouMayNeed...)
	out.PartVideos = append([]Video{}, r.PartVideos...)
	out.ModelCompatibility = append([]CompatibleModel{}, r.ModelCompatibility...)
	return out
}
