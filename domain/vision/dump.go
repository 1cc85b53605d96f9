package vision

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/disintegration/imaging"
)

// SaveIntermediates writes gray, blurred and edge PNGs named
// <prefix>-gray.png etc. into dir, creating dir if needed.
func SaveIntermediates(dir, prefix string, in Intermediates) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("vision: create dump dir: %w", err)
	}
	stages := []struct {
		name string
		img  *image.Gray
	}{
		{"gray", in.Gray},
		{"blurred", in.Blurred},
		{"edges", in.Edges},
	}
	for _, s := range stages {
		if s.img == nil || s.img.Bounds().Empty() {
			continue
		}
		path := filepath.Join(dir, fmt.Sprintf("%s-%s.png", prefix, s.name))
		if err := imaging.Save(s.img, path); err != nil {
			return fmt.Errorf("vision: save %s: %w", path, err)
		}
	}
	return nil
}

// Dumper writes diagnostic intermediates for selected frames. The zero dir
// disables it. Dumps are best-effort: failures are logged, never returned.
type Dumper struct {
	dir    string
	pre    *Preprocessor
	logger *slog.Logger
	seq    atomic.Uint64
}

func NewDumper(dir string, pre *Preprocessor, logger *slog.Logger) *Dumper {
	return &Dumper{dir: dir, pre: pre, logger: logger}
}

// Enabled reports whether dumps are written.
func (d *Dumper) Enabled() bool { return d != nil && d.dir != "" && d.pre != nil }

// Dump reprocesses frame and saves its intermediates tagged with reason.
func (d *Dumper) Dump(frame *image.RGBA, reason string) {
	if !d.Enabled() || frame == nil {
		return
	}
	seq := d.seq.Add(1)
	prefix := fmt.Sprintf("%s-%04d-%s", time.Now().Format("20060102-150405"), seq, reason)
	if err := SaveIntermediates(d.dir, prefix, d.pre.ProcessWithIntermediates(frame)); err != nil && d.logger != nil {
		d.logger.Warn("diagnostic dump failed", "reason", reason, "error", err)
	}
}
