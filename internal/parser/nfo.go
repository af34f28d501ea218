package parser

import (
	"encoding/xml"
	"os"
	"strings"
)

type movie struct {
	Title string   `xml:"title"`
	Plot  string   `xml:"plot"`
	Thumb string   `xml:"thumb"`
	Tags  []string `xml:"tag"`
}

// Sidecar is the metadata of a Kodi-style .nfo file next to a video.
type Sidecar struct {
	Title string
	Plot  string
	Thumb string
	Tags  []string
}

// ParseNFO parses a Kodi-compatible .nfo XML file.
func ParseNFO(path string) (Sidecar, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Sidecar{}, err
	}
	// xml.Unmarshal resolves the usual entities.
	var m movie
	if err := xml.Unmarshal(b, &m); err != nil {
		return Sidecar{}, err
	}
	sc := Sidecar{
		Title: strings.TrimSpace(m.Title),
		Plot:  strings.TrimSpace(m.Plot),
		Thumb: strings.TrimSpace(m.Thumb),
		Tags:  make([]string, 0, len(m.Tags)),
	}
	for _, t := range m.Tags {
		t = strings.TrimSpace(t)
		if t != "" {
			sc.Tags = append(sc.Tags, t)
		}
	}
	return sc, nil
}
