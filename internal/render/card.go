package render

import (
	"fmt"
	"strings"

	"github.com/claes/vidgallery/internal/format"
	"github.com/claes/vidgallery/internal/model"
)

const placeholderBG = `style="background-image:linear-gradient(135deg, rgba(37,99,235,.14), rgba(99,102,241,.14))"`

// DefaultEmptyText is shown in the empty-state banner when nothing matches.
const DefaultEmptyText = "No videos found."

// Grid is the rendered visible subset plus the count and empty-state
// indicators that go with it.
type Grid struct {
	HTML        string `json:"html"`
	Count       string `json:"count"`
	EmptyHidden bool   `json:"empty_hidden"`
	EmptyText   string `json:"empty_text"`
}

// Card renders one catalog record as a focusable tile.
func Card(v model.VideoRecord) string {
	bg := placeholderBG
	if thumb := string(v.ThumbnailFile); thumb != "" {
		bg = fmt.Sprintf(`style="background-image:url('%s')"`, EncodeURI(thumb))
	}
	title := string(v.Title)
	sub := format.SecondsToHuman(float64(v.DurationSeconds)) + " · " + format.BytesToHuman(float64(v.SizeBytes))

	return `
    <article class="card" tabindex="0" role="button"
      aria-label="Play ` + format.EscapeHTML(title) + `"
      data-video="` + format.EscapeAttr(string(v.VideoFile)) + `"
      data-title="` + format.EscapeAttr(title) + `">
      <div class="card__bg" ` + bg + `></div>
      <div class="card__shade"></div>
      <div class="card__body">
        <div class="card__title">` + format.EscapeHTML(title) + `</div>
        <div class="card__sub">` + format.EscapeHTML(sub) + `</div>
      </div>
    </article>
  `
}

// Cards renders the subset in order.
func Cards(subset model.Catalog) string {
	var b strings.Builder
	for _, v := range subset {
		b.WriteString(Card(v))
	}
	return b.String()
}

// RenderGrid projects subset against a catalog of total records.
func RenderGrid(subset model.Catalog, total int) Grid {
	return Grid{
		HTML:        Cards(subset),
		Count:       fmt.Sprintf("%d / %d", len(subset), total),
		EmptyHidden: len(subset) != 0,
		EmptyText:   DefaultEmptyText,
	}
}

const uriUnreserved = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789;,/?:@&=+$-_.!~*'()#"

// EncodeURI percent-encodes s the way a browser's encodeURI does: URI
// delimiters are kept, everything else is UTF-8 percent-encoded.
func EncodeURI(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 0x80 && strings.IndexByte(uriUnreserved, c) >= 0 {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return b.String()
}
