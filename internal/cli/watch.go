package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"craftyprep/internal/debounce"
	"craftyprep/internal/imageio"
)

func newWatchCommand(e *env) *cobra.Command {
	var adj adjustmentFlags

	cmd := &cobra.Command{
		Use:   "watch DIR",
		Short: "Prepare images as they appear in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := os.MkdirAll(adj.outDir, 0o755); err != nil {
				return fmt.Errorf("failed to create output dir: %w", err)
			}
			w := &watcher{
				env:    e,
				adj:    &adj,
				cmd:    cmd,
				dir:    args[0],
				settle: e.cfg.Processing.DebounceWindow() * 5,
			}
			return w.run(cmd.Context())
		},
	}

	adj.register(cmd.Flags())
	return cmd
}

// watcher reprocesses a file once writes to it have been quiet for the
// settle window.
type watcher struct {
	env    *env
	adj    *adjustmentFlags
	cmd    *cobra.Command
	dir    string
	settle time.Duration

	pending map[string]*debounce.Debouncer[string]
	outMu   sync.Mutex
}

func (w *watcher) run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	w.pending = make(map[string]*debounce.Debouncer[string])
	defer func() {
		for _, d := range w.pending {
			d.Stop()
		}
	}()

	w.env.logger.Info(component, "watching directory", map[string]interface{}{
		"dir": w.dir,
		"out": w.adj.outDir,
	})

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.wants(ev) {
				w.schedule(ctx, ev.Name)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.env.logger.Error(component, err, map[string]interface{}{"dir": w.dir})
		}
	}
}

// wants filters events down to writes of supported images that are not
// our own output.
func (w *watcher) wants(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return false
	}
	if !imageio.IsSupported(ev.Name) {
		return false
	}
	base := strings.TrimSuffix(filepath.Base(ev.Name), filepath.Ext(ev.Name))
	return !strings.HasSuffix(base, "_laser")
}

func (w *watcher) schedule(ctx context.Context, path string) {
	d, ok := w.pending[path]
	if !ok {
		d = debounce.New(w.settle, func(_ uint64, p string) {
			w.process(ctx, p)
		})
		w.pending[path] = d
	}
	d.Push(path)
}

func (w *watcher) process(ctx context.Context, path string) {
	res, err := prepareFile(ctx, w.env, w.cmd.Flags(), w.adj, path)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			w.env.logger.Error(component, err, map[string]interface{}{"file": path})
		}
		return
	}
	w.outMu.Lock()
	defer w.outMu.Unlock()
	printOutcome(w.cmd.OutOrStdout(), res)
}
