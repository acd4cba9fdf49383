package gui

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"craftyprep/internal/config"
	"craftyprep/internal/imageio"
	"craftyprep/internal/logger"
	"craftyprep/internal/models"
	"craftyprep/internal/raster"
	"craftyprep/internal/session"
	"craftyprep/internal/settings"
)

func readySnapshot(t *testing.T, generation uint64, state models.AdjustmentState) session.Snapshot {
	t.Helper()
	buf, err := raster.New(1, 1)
	require.NoError(t, err)
	return session.Snapshot{
		Status:        models.StatusDone,
		Baseline:      buf,
		Displayed:     buf,
		Adjustment:    state,
		AutoThreshold: 120,
		Generation:    generation,
	}
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Open an image to start", describe(session.Snapshot{}))
	assert.Equal(t, "Preparing image (equalize)...", describe(session.Snapshot{Status: models.StatusProcessing, Stage: "equalize"}))
	assert.Equal(t, models.MsgProcessingFailed, describe(session.Snapshot{Status: models.StatusFailed, Message: models.MsgProcessingFailed}))
	assert.Equal(t, "Ready (auto threshold 120)", describe(readySnapshot(t, 1, models.DefaultAdjustment(120))))

	pending := readySnapshot(t, 1, models.DefaultAdjustment(120))
	pending.Pending = true
	assert.Equal(t, "Updating preview...", describe(pending))
}

func TestPersistWritesChangedAdjustments(t *testing.T) {
	store := settings.NewStore(filepath.Join(t.TempDir(), "adjustment.yaml"))
	c := &Controller{store: store, logger: logger.Nop()}

	state := models.AdjustmentState{Brightness: 15, Threshold: 100, Preset: models.PresetSlate}
	c.persist(readySnapshot(t, 1, state))

	got, ok, err := store.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, state, got)
	assert.Equal(t, state, c.preferred)
}

func TestPersistSkipsWithoutImage(t *testing.T) {
	store := settings.NewStore(filepath.Join(t.TempDir(), "adjustment.yaml"))
	c := &Controller{store: store, logger: logger.Nop()}

	c.persist(session.Snapshot{Adjustment: models.DefaultAdjustment(3)})

	_, ok, err := store.Load()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRestoreOncePerImage(t *testing.T) {
	c := &Controller{
		logger:    logger.Nop(),
		hasPref:   true,
		preferred: models.AdjustmentState{Brightness: -20, Contrast: 10, Threshold: 7, Preset: models.PresetAuto},
	}

	state, ok := c.restoreFor(readySnapshot(t, 3, models.DefaultAdjustment(120)))
	require.True(t, ok)
	assert.Equal(t, models.AdjustmentState{Brightness: -20, Contrast: 10, Threshold: 120, Preset: models.PresetCustom}, state)

	_, ok = c.restoreFor(readySnapshot(t, 3, state))
	assert.False(t, ok)
}

func TestRestoreSkipsNeutralPreference(t *testing.T) {
	c := &Controller{logger: logger.Nop(), hasPref: true, preferred: models.DefaultAdjustment(50)}

	_, ok := c.restoreFor(readySnapshot(t, 1, models.DefaultAdjustment(120)))
	assert.False(t, ok)
}

func TestExportAppliesPendingAdjustment(t *testing.T) {
	sess := session.New(session.Options{Processing: config.ProcessingConfig{DebounceMS: 5000, HistoryDepth: 10}})
	t.Cleanup(sess.Close)
	c := &Controller{session: sess, logger: logger.Nop()}

	src, err := raster.FromPix(2, 2, []uint8{
		255, 0, 0, 255,
		0, 255, 0, 255,
		0, 0, 255, 255,
		255, 255, 255, 255,
	})
	require.NoError(t, err)
	require.NoError(t, sess.Load(src))
	require.Eventually(t, func() bool { return sess.Snapshot().HasImage() }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, sess.SetAdjustment(models.AdjustmentState{Threshold: 0, Preset: models.PresetCustom}))
	require.True(t, sess.Snapshot().Pending)

	var out bytes.Buffer
	require.NoError(t, c.export(&out, imaging.PNG))

	got, _, err := imageio.Load(&out, imageio.Options{})
	require.NoError(t, err)
	for i, v := range got.Pix() {
		require.Equal(t, uint8(255), v, "byte %d", i)
	}
	assert.False(t, sess.Snapshot().Pending)
}

func TestExportWithoutImage(t *testing.T) {
	sess := session.New(session.Options{})
	t.Cleanup(sess.Close)
	c := &Controller{session: sess, logger: logger.Nop()}

	var out bytes.Buffer
	assert.ErrorIs(t, c.export(&out, imaging.PNG), session.ErrNoImage)
	assert.Zero(t, out.Len())
}
