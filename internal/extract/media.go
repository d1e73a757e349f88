package extract

import (
	"strings"

	"partselect/parser/internal/domain"

	"github.com/PuerkitoBio/goquery"
)

func thumbnailSrc(img *goquery.Selection) string {
	for _, attr := range []string{"src", "data-src", "data-lazy-src"} {
		if v, ok := img.Attr(attr); ok && strings.Contains(v, "img.youtube.com") {
			return v
		}
	}
	return ""
}

// videoTitle prefers the container heading, then the thumbnail title and alt.
func videoTitle(container, img *goquery.Selection) string {
	if h := cleanText(container.Find("h4").First().Text()); h != "" {
		return h
	}
	for _, attr := range []string{"title", "alt"} {
		if v, ok := img.Attr(attr); ok {
			if v = cleanText(v); v != "" {
				return v
			}
		}
	}
	return defaultVideoTitle
}

type videoSet struct {
	videos []domain.Video
	seen   map[string]struct{}
}

func newVideoSet() *videoSet {
	return &videoSet{seen: make(map[string]struct{})}
}

func (v *videoSet) add(id, title string) {
	if !ruleYouTubeID.MatchString(id) {
		return
	}
	if _, ok := v.seen[id]; ok {
		return
	}
	v.seen[id] = struct{}{}
	v.videos = append(v.videos, domain.Video{
		Title:   title,
		URL:     youTubeWatchURL(id),
		VideoID: id,
	})
}

// videosFromContainers reads the interactive video containers of the
// installation gallery.
func videosFromContainers(doc *Document) ([]domain.Video, bool) {
	q, err := doc.Query()
	if err != nil {
		return nil, false
	}
	set := newVideoSet()
	q.Find("[data-iframe-id]").Each(func(_ int, container *goquery.Selection) {
		container.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
			src := thumbnailSrc(img)
			if src == "" {
				return true
			}
			id, ok := ruleYouTubeThumbID.Find(src)
			if !ok {
				return true
			}
			set.add(id, videoTitle(container, img))
			return false
		})
	})
	return set.videos, len(set.videos) > 0
}

// videosFromYTInit reads containers that carry the video id directly.
func videosFromYTInit(doc *Document) ([]domain.Video, bool) {
	q, err := doc.Query()
	if err != nil {
		return nil, false
	}
	set := newVideoSet()
	q.Find("[data-yt-init]").Each(func(_ int, container *goquery.Selection) {
		id, _ := container.Attr("data-yt-init")
		set.add(strings.TrimSpace(id), videoTitle(container, container.Find("img").First()))
	})
	return set.videos, len(set.videos) > 0
}

// videosFromThumbnails scans the raw page for YouTube thumbnail URLs when no
// container could be recognised.
func videosFromThumbnails(doc *Document) ([]domain.Video, bool) {
	set := newVideoSet()
	for _, m := range ruleYouTubeThumbURL.FindAll(doc.HTML()) {
		if len(set.videos) == maxFallbackVideos {
			break
		}
		set.add(m[1], defaultVideoTitle)
	}
	return set.videos, len(set.videos) > 0
}

// modelsFromRows walks the cross reference rows structurally: a brand cell,
// a model link and a description cell.
func modelsFromRows(doc *Document) ([]domain.CompatibleModel, bool) {
	q, err := doc.Query()
	if err != nil {
		return nil, false
	}
	scope := q.Find(".pd__crossref__list, #ModelCrossReference")
	if scope.Length() == 0 {
		scope = q.Selection
	}
	var models []domain.CompatibleModel
	scope.Find("div.row").Each(func(_ int, row *goquery.Selection) {
		brand := cleanText(row.ChildrenFiltered("div.col-6").First().Text())
		model := cleanText(row.ChildrenFiltered("a").First().Text())
		if brand == "" || model == "" {
			return
		}
		models = append(models, domain.CompatibleModel{
			Brand:       brand,
			ModelNumber: model,
			Description: cleanText(row.ChildrenFiltered("div.col").Last().Text()),
		})
	})
	return models, len(models) > 0
}
