package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/docintake/internal/extraction"
	"github.com/nikhilbhutani/docintake/internal/queue"
)

// ScratchWorker removes extraction workspaces abandoned by crashed processes.
// A running extraction refreshes its directory's modification time before
// every strategy attempt, so only directories idle for the configured age are
// removed.
type ScratchWorker struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewScratchWorker(logger *slog.Logger) *ScratchWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScratchWorker{logger: logger, now: time.Now}
}

func (w *ScratchWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.ScratchSweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", asynq.SkipRetry)
	}

	removed, err := Sweep(ctx, payload.Dir, time.Duration(payload.MaxAgeSeconds)*time.Second, w.now())
	if err != nil {
		return err
	}
	w.logger.Info("scratch sweep finished", "dir", payload.Dir, "removed", removed)
	return nil
}

// Sweep deletes workspace directories under root whose modification time is
// older than maxAge. Other entries are left alone. A missing root is not an
// error.
func Sweep(ctx context.Context, root string, maxAge time.Duration, now time.Time) (int, error) {
	if root == "" || maxAge <= 0 {
		return 0, nil
	}
	entries, err := os.ReadDir(root)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read scratch dir: %w", err)
	}

	cutoff := now.Add(-maxAge)
	removed := 0
	var errs []error
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if !e.IsDir() || !strings.HasPrefix(e.Name(), extraction.WorkspacePrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(root, e.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}
