package workflow

import "reel/internal/queue"

// ConfigureStages registers the concrete stage handlers the workflow will run.
// The foreground lane covers the interactive media stages (transcription
// through chapter suggestion); the background lane covers the long-running
// generation and publishing stages. Slideshow items enter the queue at
// chaptered, so they only ever traverse the background lane.
func (m *Manager) ConfigureStages(set StageSet) {
	foreground := &laneState{kind: laneForeground, name: "foreground", notificationsEnabled: true}
	background := &laneState{kind: laneBackground, name: "background", notificationsEnabled: false}

	if set.Transcriber != nil {
		foreground.stages = append(foreground.stages, pipelineStage{
			name:             "transcriber",
			handler:          set.Transcriber,
			startStatus:      queue.StatusPending,
			processingStatus: queue.StatusTranscribing,
			doneStatus:       queue.StatusTranscribed,
		})
	}
	analyzerDone := queue.StatusTranscribed
	if set.Analyzer != nil {
		foreground.stages = append(foreground.stages, pipelineStage{
			name:             "analyzer",
			handler:          set.Analyzer,
			startStatus:      queue.StatusTranscribed,
			processingStatus: queue.StatusAnalyzing,
			doneStatus:       queue.StatusAnalyzed,
		})
		analyzerDone = queue.StatusAnalyzed
	}
	editorDone := analyzerDone
	if set.Editor != nil {
		foreground.stages = append(foreground.stages, pipelineStage{
			name:             "editor",
			handler:          set.Editor,
			startStatus:      analyzerDone,
			processingStatus: queue.StatusEditing,
			doneStatus:       queue.StatusEdited,
		})
		editorDone = queue.StatusEdited
	}
	if set.Chapterer != nil {
		foreground.stages = append(foreground.stages, pipelineStage{
			name:             "chapterer",
			handler:          set.Chapterer,
			startStatus:      editorDone,
			processingStatus: queue.StatusChaptering,
			doneStatus:       queue.StatusChaptered,
		})
	}

	narratorDone := queue.StatusChaptered
	if set.Narrator != nil {
		background.stages = append(background.stages, pipelineStage{
			name:             "narrator",
			handler:          set.Narrator,
			startStatus:      queue.StatusChaptered,
			processingStatus: queue.StatusNarrating,
			doneStatus:       queue.StatusNarrated,
		})
		narratorDone = queue.StatusNarrated
	}
	illustratorDone := narratorDone
	if set.Illustrator != nil {
		background.stages = append(background.stages, pipelineStage{
			name:             "illustrator",
			handler:          set.Illustrator,
			startStatus:      narratorDone,
			processingStatus: queue.StatusIllustrating,
			doneStatus:       queue.StatusIllustrated,
		})
		illustratorDone = queue.StatusIllustrated
	}
	rendererDone := illustratorDone
	if set.Renderer != nil {
		background.stages = append(background.stages, pipelineStage{
			name:             "renderer",
			handler:          set.Renderer,
			startStatus:      illustratorDone,
			processingStatus: queue.StatusRendering,
			doneStatus:       queue.StatusRendered,
		})
		rendererDone = queue.StatusRendered
	}
	if set.Publisher != nil {
		background.stages = append(background.stages, pipelineStage{
			name:             "publisher",
			handler:          set.Publisher,
			startStatus:      rendererDone,
			processingStatus: queue.StatusPublishing,
			doneStatus:       queue.StatusCompleted,
		})
	}

	lanes := make(map[laneKind]*laneState)
	order := make([]laneKind, 0, 2)

	if len(foreground.stages) > 0 {
		foreground.finalize()
		lanes[foreground.kind] = foreground
		order = append(order, foreground.kind)
	}
	if len(background.stages) > 0 {
		background.finalize()
		lanes[background.kind] = background
		order = append(order, background.kind)
	}

	for _, lane := range lanes {
		if lane == nil {
			continue
		}
		lane.runReclaimer = len(lane.processingStatuses) > 0
	}

	m.mu.Lock()
	m.lanes = lanes
	m.laneOrder = order
	m.mu.Unlock()
}
