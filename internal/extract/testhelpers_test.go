package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"partselect/parser/internal/domain"
)

const testURL = "https://www.partselect.com/PS11752778-1.htm"

// productPage is a trimmed copy of a real product page layout.
const productPage = `<!DOCTYPE html>
<html>
<head>
<title>Refrigerator Door Shelf Bin WPW10321304 - PartSelect.com</title>
<meta name="description" content="OEM WPW10321304 - Refrigerator Door Shelf Bin. Fixes Door won't open or close.">
<script>window.dataLayer = [{"stock":"in stock"}];</script>
</head>
<body>
<div class="pd__wrap">
  <h1 class="title-lg mt-1 mb-3" itemprop="name">Refrigerator Door Shelf Bin WPW10321304</h1>
  <div class="mb-2">PartSelect Number <span itemprop="productID">PS11752778</span></div>
  <div class="mb-2">Manufacturer Part Number <span itemprop="mpn">WPW10321304</span></div>
  <div class="price pd__price">
    <span class="price__currency">$</span><span class="js-partPrice">44.95</span>
    <meta itemprop="price" content="44.95">
  </div>
  <div class="pd__ships"><span class="js-partAvailability">In Stock</span></div>
  <div class="pd__repair-rating">
    <p class="bold">Really Easy&nbsp;</p>
    <p class="bold">Less than 15 mins&nbsp;</p>
  </div>
  <div class="rating">
    <span class="rating__stars">4.9 / 5.0</span>
    <span class="rating__count">351 Reviews</span>
  </div>
  <div class="pd__description">
    <div itemprop="description" class="mt-3">This refrigerator door bin is a genuine OEM replacement designed to fit side-by-side refrigerators. It attaches to the inside of the fridge door and holds jars, bottles &amp; condiments.</div>
  </div>
  <div class="row">
    <div class="col-md-6 mt-3"><div class="bold mb-1">This part fixes the following symptoms:</div>Door won't open or close | Ice maker won't dispense ice | Leaking</div>
    <div class="col-md-6 mt-3"><div class="bold mb-1">This part works with the following products:</div>Refrigerator.</div>
  </div>
  <div class="col-md-6 mt-3">
    <div class="bold mb-1">Part# WPW10321304 replaces these:</div>
    <div data-collapse-container="{&quot;targetClassToggle&quot;:&quot;d-flex&quot;}">AP6019471, 2171046, 2171047, 2179574, 2179575, 2179607, 2179607K, 2198449, 2198449K, 2304235, 2304235K, W10321302, W10321303, W10321304, W10549739, WPW10321304VP</div>
  </div>
  <div id="PartVideos" class="expanded">
    <div class="yt-video" data-iframe-id="v1">
      <img src="https://img.youtube.com/vi/zSCNN6KpDE8/hqdefault.jpg" alt="Replacing the door bin" title="Replacing the door bin">
      <h4>How to replace the Refrigerator Door Bin</h4>
    </div>
    <div class="yt-video" data-iframe-id="v2">
      <img src="https://img.youtube.com/vi/abcdefghijk/hqdefault.jpg" alt="Door bin removal">
    </div>
  </div>
  %s
  <div class="expanded" id="ModelCrossReference"><span>Model Cross Reference</span></div>
</div>
</body>
</html>`

func relatedSectionHTML(n int) string {
	var b strings.Builder
	b.WriteString(`<div class="expanded" id="RelatedParts"><h2>You May Also Need</h2><div data-collapsible="">`)
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, `<div class="col-md-4 mt-3 pd__related-part">
<a class="bold" href="/PS%d-1.htm">Related Replacement Part %d</a>
<div class="price"><span class="price__currency">$</span>%d.50</div>
</div>`, 1000+i, i, 10+i)
	}
	b.WriteString(`</div></div>`)
	return b.String()
}

func fullPage() string {
	return fmt.Sprintf(productPage, relatedSectionHTML(3))
}

const crossReferenceHTML = `<html><body>
<div class="expanded" id="ModelCrossReference">
<div class="pd__crossref__list js-dataContainer">
<div class="row">
<div class="col-6 col-md-3">Whirlpool</div>
<a class="col-6 col-md-3 col-lg-2" href="/Models/WRS325FDAM04/">WRS325FDAM04</a>
<div class="col col-md-6 col-lg-7">
Refrigerator
</div>
</div>
<div class="row">
<div class="col-6 col-md-3">KitchenAid</div>
<a class="col-6 col-md-3 col-lg-2" href="/Models/KRSC503ESS00/">KRSC503ESS00</a>
<div class="col col-md-6 col-lg-7">
Side-by-Side Refrigerator
</div>
</div>
</div>
</div>
</body></html>`

// fakeSource serves a fixed HTML page and per-section expansions.
type fakeSource struct {
	url      string
	html     string
	sections map[domain.Section]string
	calls    []domain.Section
}

func (f *fakeSource) URL() string  { return f.url }
func (f *fakeSource) HTML() string { return f.html }

func (f *fakeSource) Trigger(_ context.Context, section domain.Section) (string, error) {
	f.calls = append(f.calls, section)
	if html, ok := f.sections[section]; ok {
		return html, nil
	}
	return "", errors.New("section not available")
}
