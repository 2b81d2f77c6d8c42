package workflow

import "podbrief/internal/queue"

// ConfigureStages registers the concrete stage handlers the workflow will run.
// The fetch lane resolves episodes and gathers transcripts; the deliver lane
// summarizes and publishes them. Missing handlers leave gaps in the pipeline,
// which is useful for tests that exercise a single lane.
func (m *Manager) ConfigureStages(set StageSet) {
	fetch := &laneState{kind: laneFetch, name: "fetch"}
	deliver := &laneState{kind: laneDeliver, name: "deliver"}

	if set.Resolver != nil {
		fetch.stages = append(fetch.stages, pipelineStage{
			name:             "resolver",
			handler:          set.Resolver,
			startStatus:      queue.StatusPending,
			processingStatus: queue.StatusResolving,
			doneStatus:       queue.StatusResolved,
		})
	}
	if set.Transcriber != nil {
		fetch.stages = append(fetch.stages, pipelineStage{
			name:             "transcriber",
			handler:          set.Transcriber,
			startStatus:      queue.StatusResolved,
			processingStatus: queue.StatusTranscribing,
			doneStatus:       queue.StatusTranscribed,
		})
	}
	if set.Summarizer != nil {
		deliver.stages = append(deliver.stages, pipelineStage{
			name:             "summarizer",
			handler:          set.Summarizer,
			startStatus:      queue.StatusTranscribed,
			processingStatus: queue.StatusSummarizing,
			doneStatus:       queue.StatusSummarized,
		})
	}
	if set.Publisher != nil {
		deliver.stages = append(deliver.stages, pipelineStage{
			name:             "publisher",
			handler:          set.Publisher,
			startStatus:      queue.StatusSummarized,
			processingStatus: queue.StatusPublishing,
			doneStatus:       queue.StatusCompleted,
		})
	}

	lanes := make(map[laneKind]*laneState)
	order := make([]laneKind, 0, 2)

	if len(fetch.stages) > 0 {
		fetch.finalize()
		lanes[fetch.kind] = fetch
		order = append(order, fetch.kind)
	}
	if len(deliver.stages) > 0 {
		deliver.finalize()
		lanes[deliver.kind] = deliver
		order = append(order, deliver.kind)
	}

	m.mu.Lock()
	m.lanes = lanes
	m.laneOrder = order
	m.mu.Unlock()
}
