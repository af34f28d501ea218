package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// VideoRecord is one entry of the catalog file.
type VideoRecord struct {
	ID              Text   `json:"id,omitempty"`
	Index           Number `json:"index,omitempty"`
	Title           Text   `json:"title"`
	VideoFile       Text   `json:"video_file"`
	ThumbnailFile   Text   `json:"thumbnail_file"`
	DurationSeconds Number `json:"duration_seconds"`
	SizeBytes       Number `json:"size_bytes"`
}

// Catalog is the ordered list of records; order is display order.
type Catalog []VideoRecord

// Document is the catalog file as written by the generator.
// Readers only rely on Videos.
type Document struct {
	GeneratedAtEpoch int64   `json:"generated_at_epoch"`
	VideosDir        string  `json:"videos_dir"`
	ThumbnailsDir    string  `json:"thumbnails_dir"`
	Count            int     `json:"count"`
	Videos           Catalog `json:"videos"`
}

// Credentials is the single user/pass pair of auth.json.
type Credentials struct {
	User Text `json:"user"`
	Pass Text `json:"pass"`
}

// Number is a lenient numeric field: JSON numbers and numeric strings
// decode to their value, anything else (null, garbage, objects) to 0.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	*n = 0
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] == 'n' {
		return nil
	}
	var s string
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
	} else {
		s = string(b)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	*n = Number(f)
	return nil
}

// Text is a lenient string field: strings decode as-is, numbers and
// booleans to their literal text, null or structured values to "".
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	*t = ""
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		*t = Text(s)
	case 'n', '{', '[':
	default:
		*t = Text(b)
	}
	return nil
}
