// Package videoindex scans a site's videos folder and builds the catalog
// document: one record per .mp4 (probed with ffprobe, thumbnailed with
// ffmpeg) and per .url sidecar pointing at remote media.
package videoindex

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/claes/vidgallery/internal/model"
	"github.com/claes/vidgallery/internal/parser"
)

// Runner runs an external command and returns its stdout.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Options control the scan. Zero values take the defaults below.
type Options struct {
	VideosDir  string
	ThumbsDir  string
	ThumbAt    float64 // seconds into the video
	ThumbWidth int
	ThumbExt   string
	Runner     Runner
	Log        logrus.FieldLogger
	Now        func() time.Time
}

func (o *Options) defaults() {
	if o.VideosDir == "" {
		o.VideosDir = "videos"
	}
	if o.ThumbsDir == "" {
		o.ThumbsDir = "thumbnails"
	}
	if o.ThumbAt <= 0 {
		o.ThumbAt = 2.0
	}
	if o.ThumbWidth <= 0 {
		o.ThumbWidth = 640
	}
	if o.ThumbExt == "" {
		o.ThumbExt = "webp"
	}
	if o.Runner == nil {
		o.Runner = ExecRunner{}
	}
	if o.Log == nil {
		o.Log = logrus.StandardLogger()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Build scans root/VideosDir and returns the catalog document. Thumbnails
// that already exist are reused.
func Build(ctx context.Context, root string, opts Options) (model.Document, error) {
	opts.defaults()
	doc := model.Document{
		VideosDir:     opts.VideosDir,
		ThumbnailsDir: opts.ThumbsDir,
		Videos:        model.Catalog{},
	}

	videosDir := filepath.Join(root, opts.VideosDir)
	if fi, err := os.Stat(videosDir); err != nil || !fi.IsDir() {
		return doc, fmt.Errorf("missing folder: %s", videosDir)
	}
	thumbsDir := filepath.Join(root, opts.ThumbsDir)
	if !IsSubpath(root, videosDir) || !IsSubpath(root, thumbsDir) {
		return doc, os.ErrPermission
	}
	if err := os.MkdirAll(thumbsDir, 0o755); err != nil {
		return doc, fmt.Errorf("mkdir thumbnails: %w", err)
	}

	entries, err := os.ReadDir(videosDir)
	if err != nil {
		return doc, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".mp4", ".url":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return doc, err
		}
		ext := filepath.Ext(name)
		stem := strings.TrimSuffix(name, ext)
		var (
			rec model.VideoRecord
			ok  bool
		)
		if strings.EqualFold(ext, ".url") {
			rec, ok = remoteRecord(videosDir, stem, name, opts)
		} else {
			rec, ok = localRecord(ctx, root, videosDir, thumbsDir, stem, name, opts)
		}
		if !ok {
			continue
		}
		rec.Index = model.Number(len(doc.Videos) + 1)
		doc.Videos = append(doc.Videos, rec)
	}
	doc.Count = len(doc.Videos)
	doc.GeneratedAtEpoch = opts.Now().Unix()
	return doc, nil
}

func localRecord(ctx context.Context, root, videosDir, thumbsDir, stem, name string, opts Options) (model.VideoRecord, bool) {
	log := opts.Log.WithField("video", name)
	vp := filepath.Join(videosDir, name)
	fi, err := os.Stat(vp)
	if err != nil {
		log.WithError(err).Warn("skipping unreadable video")
		return model.VideoRecord{}, false
	}

	dur := probeDuration(ctx, opts.Runner, vp)

	thumbName := stem + "." + opts.ThumbExt
	thumbPath := filepath.Join(thumbsDir, thumbName)
	thumbRel := ""
	if _, err := os.Stat(thumbPath); err == nil {
		thumbRel = relSlash(root, thumbPath)
	} else if err := makeThumbnail(ctx, opts, vp, thumbPath, dur); err != nil {
		log.WithError(err).Warn("thumbnail failed")
	} else {
		thumbRel = relSlash(root, thumbPath)
	}

	return model.VideoRecord{
		ID:              model.Text(stem),
		Title:           model.Text(sidecarTitle(videosDir, stem, log)),
		VideoFile:       model.Text(relSlash(root, vp)),
		ThumbnailFile:   model.Text(thumbRel),
		DurationSeconds: model.Number(math.Round(dur*1000) / 1000),
		SizeBytes:       model.Number(fi.Size()),
	}, true
}

func remoteRecord(videosDir, stem, name string, opts Options) (model.VideoRecord, bool) {
	log := opts.Log.WithField("video", name)
	u, err := parser.ParseURLFile(filepath.Join(videosDir, name))
	if err != nil || u == "" {
		log.WithError(err).Warn("skipping empty url file")
		return model.VideoRecord{}, false
	}
	rec := model.VideoRecord{
		ID:        model.Text(stem),
		Title:     model.Text(sidecarTitle(videosDir, stem, log)),
		VideoFile: model.Text(u),
	}
	if sc, err := parser.ParseNFO(filepath.Join(videosDir, stem+".nfo")); err == nil {
		rec.ThumbnailFile = model.Text(sc.Thumb)
	}
	return rec, true
}

// sidecarTitle prefers the title of stem.nfo and falls back to stem.
func sidecarTitle(dir, stem string, log logrus.FieldLogger) string {
	p := filepath.Join(dir, stem+".nfo")
	if !Exists(p) {
		return stem
	}
	sc, err := parser.ParseNFO(p)
	if err != nil {
		log.WithError(err).Warn("ignoring unreadable nfo")
		return stem
	}
	if sc.Title == "" {
		return stem
	}
	return sc.Title
}

// probeDuration returns the container duration in seconds, 0 on failure.
func probeDuration(ctx context.Context, r Runner, path string) float64 {
	out, err := r.Run(ctx, "ffprobe", "-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path)
	if err != nil {
		return 0
	}
	s := strings.TrimSpace(string(out))
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

// ThumbnailAt picks the capture time: 20% in, capped at at.
func ThumbnailAt(at, duration float64) float64 {
	if duration > 0 {
		return math.Min(at, math.Max(0, duration*0.2))
	}
	return at
}

func makeThumbnail(ctx context.Context, opts Options, video, thumb string, dur float64) error {
	t := ThumbnailAt(opts.ThumbAt, dur)
	_, err := opts.Runner.Run(ctx, "ffmpeg",
		"-y",
		"-ss", fmt.Sprintf("%.3f", t),
		"-i", video,
		"-vframes", "1",
		"-vf", fmt.Sprintf("scale=%d:-2", opts.ThumbWidth),
		thumb)
	if err != nil {
		_ = os.Remove(thumb)
		return fmt.Errorf("ffmpeg: %w", err)
	}
	if !Exists(thumb) {
		return fmt.Errorf("ffmpeg produced no file")
	}
	return nil
}

// Write stores doc at path atomically, indented, without HTML escaping.
func Write(path string, doc model.Document) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open tmp: %w", err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(&doc); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encode catalog: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close tmp: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename tmp: %w", err)
	}
	return nil
}

func relSlash(root, p string) string {
	absRoot, _ := filepath.Abs(root)
	absP, _ := filepath.Abs(p)
	rel, err := filepath.Rel(absRoot, absP)
	if err != nil {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}

// Exists reports whether a path exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !os.IsNotExist(err)
}

// IsSubpath ensures child is within root, preventing path traversal.
func IsSubpath(root, child string) bool {
	absRoot, _ := filepath.Abs(root)
	absChild, _ := filepath.Abs(child)
	rel, err := filepath.Rel(absRoot, absChild)
	if err != nil {
		return false
	}
	return !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && rel != ".."
}
