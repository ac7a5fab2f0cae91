// Package workflow advances queue items through the configured processing
// stages.
//
// The Manager polls the queue, reclaims stale work via heartbeats, and feeds
// items into registered stage handlers (transcriber, analyzer, editor,
// chapterer, narrator, illustrator, renderer, publisher) while capturing
// progress and failure metadata. It also aggregates queue stats, calls stage
// health checks, and emits queue-level notifications when processing starts
// or completes.
//
// The workflow runs two independent lanes: foreground (transcription through
// chapter suggestion) and background (narration, illustration, rendering,
// publishing). Each lane polls for items matching its statuses and processes
// them independently, so transcription of recording B can proceed while
// recording A renders. Slideshow items enter the queue already chaptered and
// therefore only traverse the background lane.
//
// Add new lifecycle stages by extending StageSet, updating the queue status
// enums, and teaching the manager how to transition items; this package is the
// authoritative home for that coordination logic.
package workflow
