package vision

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveIntermediates_WritesStages(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dumps")
	pre := NewPreprocessor(PreprocessConfig{BlurSigma: 1, CannyLow: 20, CannyHigh: 60})
	require.NoError(t, SaveIntermediates(dir, "frame", pre.ProcessWithIntermediates(solidRGBA(8, 8, color.RGBA{1, 2, 3, 255}))))
	for _, stage := range []string{"gray", "blurred", "edges"} {
		_, err := os.Stat(filepath.Join(dir, "frame-"+stage+".png"))
		assert.NoError(t, err, stage)
	}
}

func TestDumper_DisabledWritesNothing(t *testing.T) {
	var nilDumper *Dumper
	assert.False(t, nilDumper.Enabled())
	nilDumper.Dump(solidRGBA(4, 4, color.RGBA{}), "noop")

	d := NewDumper("", NewPreprocessor(PreprocessConfig{}), nil)
	assert.False(t, d.Enabled())
}

func TestDumper_WritesTaggedFiles(t *testing.T) {
	dir := t.TempDir()
	d := NewDumper(dir, NewPreprocessor(PreprocessConfig{CannyLow: 10, CannyHigh: 20}), nil)
	d.Dump(solidRGBA(6, 6, color.RGBA{9, 9, 9, 255}), "trigger")
	matches, err := filepath.Glob(filepath.Join(dir, "*-0001-trigger-edges.png"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}
