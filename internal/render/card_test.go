package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/claes/vidgallery/internal/model"
)

func TestCard_EscapesAndFormats(t *testing.T) {
	v := model.VideoRecord{
		Title:           `Tom & "Jerry" <1>`,
		VideoFile:       `videos/a"b.mp4`,
		DurationSeconds: 125,
		SizeBytes:       1536,
	}
	html := Card(v)
	assert.Contains(t, html, `aria-label="Play Tom &amp; &quot;Jerry&quot; &lt;1&gt;"`)
	assert.Contains(t, html, `data-video="videos/a&quot;b.mp4"`)
	assert.Contains(t, html, `data-title="Tom &amp; &quot;Jerry&quot; &lt;1&gt;"`)
	assert.Contains(t, html, `<div class="card__title">Tom &amp; &quot;Jerry&quot; &lt;1&gt;</div>`)
	assert.Contains(t, html, `<div class="card__sub">2m 05s · 1.5 KB</div>`)
	assert.Contains(t, html, `tabindex="0" role="button"`)
	assert.Contains(t, html, "linear-gradient(135deg", "no thumbnail uses the placeholder")
}

func TestCard_ThumbnailIsURIEncoded(t *testing.T) {
	html := Card(model.VideoRecord{Title: "x", ThumbnailFile: "thumbnails/my clip#1é.webp"})
	assert.Contains(t, html, `url('thumbnails/my%20clip#1%C3%A9.webp')`)
	assert.NotContains(t, html, "linear-gradient")
}

func TestRenderGrid_CountAndEmptyState(t *testing.T) {
	g := RenderGrid(nil, 0)
	assert.Equal(t, "0 / 0", g.Count)
	assert.False(t, g.EmptyHidden)
	assert.Empty(t, strings.TrimSpace(g.HTML))

	subset := model.Catalog{{Title: "a"}, {Title: "b"}, {Title: "c"}}
	g = RenderGrid(subset, 10)
	assert.Equal(t, "3 / 10", g.Count)
	assert.True(t, g.EmptyHidden)
	assert.Equal(t, 3, strings.Count(g.HTML, `<article class="card"`))
	assert.Less(t, strings.Index(g.HTML, `data-title="a"`), strings.Index(g.HTML, `data-title="b"`))
	assert.Less(t, strings.Index(g.HTML, `data-title="b"`), strings.Index(g.HTML, `data-title="c"`))
}

func TestEncodeURI(t *testing.T) {
	assert.Equal(t, "a/b?c=d&e#f", EncodeURI("a/b?c=d&e#f"))
	assert.Equal(t, "a%20b", EncodeURI("a b"))
	assert.Equal(t, "%22%3C%3E%25", EncodeURI(`"<>%`))
	assert.Equal(t, "it's", EncodeURI("it's"))
}
