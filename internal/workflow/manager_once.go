package workflow

import (
	"context"
	"errors"

	"podbrief/internal/queue"
)

// RunOnceSummary reports the outcome of a single synchronous queue pass.
type RunOnceSummary struct {
	Processed int
	Completed int
	Failed    int
	Review    int
}

// Errored reports whether any episode ended the pass in a failed state.
func (s RunOnceSummary) Errored() bool {
	return s.Failed > 0
}

// RunOnce drives every eligible episode through the configured stages on the
// caller's goroutine and returns once no lane has work left. It exists for the
// one-shot CLI mode, which processes the queue without a daemon.
func (m *Manager) RunOnce(ctx context.Context) (RunOnceSummary, error) {
	m.mu.RLock()
	running := m.running
	lanes := make([]*laneState, 0, len(m.laneOrder))
	totalStages := 0
	for _, kind := range m.laneOrder {
		lane := m.lanes[kind]
		if lane == nil || len(lane.statusOrder) == 0 {
			continue
		}
		lanes = append(lanes, lane)
		totalStages += len(lane.stages)
	}
	m.mu.RUnlock()

	if running {
		return RunOnceSummary{}, errors.New("workflow already running")
	}
	if len(lanes) == 0 {
		return RunOnceSummary{}, errors.New("workflow stages not configured")
	}

	// Every episode passes each stage at most once plus its retry budget, so
	// anything claimed more often than that is stuck (for example because
	// persistence keeps failing) and gets left where it is.
	attemptLimit := totalStages + m.maxRetries() + 1
	attempts := make(map[int64]int)
	touched := make(map[int64]struct{})

	for {
		progressed := false
		for _, lane := range lanes {
			logger := m.laneLogger(lane)
			for {
				if err := ctx.Err(); err != nil {
					return m.summarizeRunOnce(ctx, touched), err
				}
				item, err := m.nextItemForLane(ctx, lane)
				if err != nil {
					return m.summarizeRunOnce(ctx, touched), err
				}
				if item == nil {
					break
				}
				if attempts[item.ID] >= attemptLimit {
					break
				}
				attempts[item.ID]++
				touched[item.ID] = struct{}{}
				if err := m.processItem(ctx, lane, logger, item); err != nil {
					if errors.Is(err, context.Canceled) {
						return m.summarizeRunOnce(ctx, touched), err
					}
				}
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}

	return m.summarizeRunOnce(ctx, touched), nil
}

func (m *Manager) summarizeRunOnce(ctx context.Context, touched map[int64]struct{}) RunOnceSummary {
	summary := RunOnceSummary{Processed: len(touched)}
	for id := range touched {
		item, err := m.store.GetByID(ctx, id)
		if err != nil || item == nil {
			continue
		}
		switch item.Status {
		case queue.StatusCompleted:
			summary.Completed++
		case queue.StatusFailed:
			summary.Failed++
		case queue.StatusReview:
			summary.Review++
		}
	}
	return summary
}
