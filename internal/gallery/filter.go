package gallery

import (
	"strings"

	"github.com/claes/vidgallery/internal/model"
)

// Filter returns the records of all whose lowercased title contains the
// trimmed, lowercased text. An empty term returns all unchanged. The
// result preserves catalog order.
func Filter(all model.Catalog, text string) model.Catalog {
	term := strings.ToLower(strings.TrimSpace(text))
	if term == "" {
		return all
	}
	out := make(model.Catalog, 0, len(all))
	for _, v := range all {
		if strings.Contains(strings.ToLower(string(v.Title)), term) {
			out = append(out, v)
		}
	}
	return out
}
