package cli

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"craftyprep/internal/config"
	"craftyprep/internal/imageio"
	"craftyprep/internal/logger"
	"craftyprep/internal/models"
)

// writePrimaries writes a 2x2 red, green, blue, white PNG.
func writePrimaries(t *testing.T, path string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{G: 255, A: 255})
	img.SetNRGBA(0, 1, color.NRGBA{B: 255, A: 255})
	img.SetNRGBA(1, 1, color.NRGBA{R: 255, G: 255, B: 255, A: 255})

	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfg := filepath.Join(t.TempDir(), "missing.toml")

	root := NewRootCommand(&bytes.Buffer{})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", cfg}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestProcessWritesLaserFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "badge.png")
	writePrimaries(t, src)
	outDir := filepath.Join(dir, "out")

	out, err := run(t, "process", src, "--out", outDir, "--jobs", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "threshold 86")
	assert.Contains(t, out, "50.0% burn")

	buf, _, err := imageio.LoadFile(filepath.Join(outDir, "badge_laser.png"), imageio.Options{})
	require.NoError(t, err)
	assert.Equal(t, []uint8{
		0, 0, 0, 255,
		255, 255, 255, 255,
		0, 0, 0, 255,
		255, 255, 255, 255,
	}, buf.Pix())
}

func TestProcessThresholdOverride(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "badge.png")
	writePrimaries(t, src)

	out, err := run(t, "process", src, "--out", dir, "--threshold", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "threshold 0")
	assert.Contains(t, out, "0.0% burn")
}

func TestProcessRejectsOutOfRange(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "badge.png")
	writePrimaries(t, src)

	_, err := run(t, "process", src, "--out", dir, "--brightness", "500")
	var ve *models.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestProcessMissingFile(t *testing.T) {
	_, err := run(t, "process", filepath.Join(t.TempDir(), "nope.png"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestAnalyze(t *testing.T) {
	src := filepath.Join(t.TempDir(), "badge.png")
	writePrimaries(t, src)

	out, err := run(t, "analyze", src)
	require.NoError(t, err)
	assert.Contains(t, out, "size:       2x2")
	assert.Contains(t, out, "gray range: 29..255")
	assert.Contains(t, out, "levels:     4")
	assert.Contains(t, out, "threshold:  86")
	assert.Contains(t, out, "refine:     brightness -> contrast -> threshold")
}

func TestAdjustmentFlagsState(t *testing.T) {
	var adj adjustmentFlags
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	adj.register(fs)

	st, err := adj.state(fs, 120)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultAdjustment(120), st)

	require.NoError(t, fs.Parse([]string{"-b", "10", "-t", "90"}))
	st, err = adj.state(fs, 120)
	require.NoError(t, err)
	assert.Equal(t, models.AdjustmentState{Brightness: 10, Threshold: 90, Preset: models.PresetCustom}, st)
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, filepath.Join("o", "cat_laser.png"), outputPath("o", "/in/cat.jpg", ""))
	assert.Equal(t, filepath.Join("o", "cat_laser.bmp"), outputPath("o", "/in/cat.bmp", ""))
	assert.Equal(t, filepath.Join("o", "cat_laser.tif"), outputPath("o", "/in/cat.png", "tiff"))
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatchProcessesNewImages(t *testing.T) {
	in := t.TempDir()
	outDir := t.TempDir()

	cfg := config.Default()
	cfg.Processing.DebounceMS = 10
	e := &env{cfg: cfg, logger: logger.Nop()}

	adj := &adjustmentFlags{}
	cmd := &cobra.Command{}
	adj.register(cmd.Flags())
	adj.outDir = outDir
	var out syncBuffer
	cmd.SetOut(&out)

	w := &watcher{env: e, adj: adj, cmd: cmd, dir: in, settle: 20 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.run(ctx) }()

	// fsnotify needs the watch registered before the file appears.
	time.Sleep(100 * time.Millisecond)
	writePrimaries(t, filepath.Join(in, "new.png"))

	dst := filepath.Join(outDir, "new_laser.png")
	require.Eventually(t, func() bool {
		_, err := os.Stat(dst)
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)
	assert.Eventually(t, func() bool {
		return bytes.Contains([]byte(out.String()), []byte("threshold 86"))
	}, time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestWatchIgnoresOwnOutput(t *testing.T) {
	w := &watcher{}
	assert.True(t, w.wants(fsnotify.Event{Name: "a.png", Op: fsnotify.Create}))
	assert.False(t, w.wants(fsnotify.Event{Name: "a.png", Op: fsnotify.Remove}))
	assert.False(t, w.wants(fsnotify.Event{Name: "a_laser.png", Op: fsnotify.Write}))
	assert.False(t, w.wants(fsnotify.Event{Name: "a.txt", Op: fsnotify.Create}))
}
