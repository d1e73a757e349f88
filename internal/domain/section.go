package domain

// Section is an interactive part of the product page that is only rendered
// after a client-side action.
type Section string

func (s Section) String() string {
	return string(s)
}

const (
	SectionModelCrossReference Section = "model_cross_reference"
	SectionVideoGallery        Section = "video_gallery"
)
