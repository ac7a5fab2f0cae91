package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a queue item.
type Status string

const (
	StatusPending      Status = "pending"
	StatusTranscribing Status = "transcribing"
	StatusTranscribed  Status = "transcribed"
	StatusAnalyzing    Status = "analyzing"
	StatusAnalyzed     Status = "analyzed"
	StatusEditing      Status = "editing"
	StatusEdited       Status = "edited"
	StatusChaptering   Status = "chaptering"
	StatusChaptered    Status = "chaptered"
	StatusNarrating    Status = "narrating"
	StatusNarrated     Status = "narrated"
	StatusIllustrating Status = "illustrating"
	StatusIllustrated  Status = "illustrated"
	StatusRendering    Status = "rendering"
	StatusRendered     Status = "rendered"
	StatusPublishing   Status = "publishing"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
	StatusReview       Status = "review"
)

// Kind distinguishes the two supported production flows.
type Kind string

const (
	// KindScreencast is a recorded video that gets transcribed, tightened,
	// and chaptered.
	KindScreencast Kind = "screencast"
	// KindSlideshow is a markdown deck that gets narrated, illustrated,
	// and rendered into a video.
	KindSlideshow Kind = "slideshow"
)

// UserStopReason is the review reason set when a user explicitly stops an item.
const UserStopReason = "Stop requested by user"

// DaemonStopReason is the error message set when items are failed due to daemon shutdown.
const DaemonStopReason = "Daemon stopped"

var allStatuses = []Status{
	StatusPending,
	StatusTranscribing,
	StatusTranscribed,
	StatusAnalyzing,
	StatusAnalyzed,
	StatusEditing,
	StatusEdited,
	StatusChaptering,
	StatusChaptered,
	StatusNarrating,
	StatusNarrated,
	StatusIllustrating,
	StatusIllustrated,
	StatusRendering,
	StatusRendered,
	StatusPublishing,
	StatusCompleted,
	StatusFailed,
	StatusReview,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusTranscribing: {},
	StatusAnalyzing:    {},
	StatusEditing:      {},
	StatusChaptering:   {},
	StatusNarrating:    {},
	StatusIllustrating: {},
	StatusRendering:    {},
	StatusPublishing:   {},
}

// stageRollback maps each processing status to the status an item returns to
// when its stage is interrupted and must be retried from the top.
var stageRollback = map[Status]Status{
	StatusTranscribing: StatusPending,
	StatusAnalyzing:    StatusTranscribed,
	StatusEditing:      StatusAnalyzed,
	StatusChaptering:   StatusEdited,
	StatusNarrating:    StatusChaptered,
	StatusIllustrating: StatusNarrated,
	StatusRendering:    StatusIllustrated,
	StatusPublishing:   StatusRendered,
}

// DatabaseHealth captures diagnostic information about the queue database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    string
	TableExists      bool
	ColumnsPresent   []string
	MissingColumns   []string
	IntegrityCheck   bool
	TotalItems       int
	Error            string
}

// HealthSummary describes aggregated queue counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Failed     int
	Review     int
	Completed  int
}

// Item represents a queue item persisted in SQLite.
type Item struct {
	ID              int64
	Kind            Kind
	SourcePath      string
	Title           string
	Status          Status
	MediaInfoJSON   string
	ContentHash     string
	TranscriptFile  string
	PausesFile      string
	EditedFile      string
	ChaptersFile    string
	NarrationDir    string
	ImageDir        string
	RenderedFile    string
	FinalFile       string
	ItemLogPath     string
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ProgressStage   string
	ProgressPercent float64
	ProgressMessage string
	MetadataJSON    string
	LastHeartbeat   *time.Time
	NeedsReview     bool
	ReviewReason    string
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// ParseKind converts a string into a known Kind.
func ParseKind(value string) (Kind, bool) {
	normalized := Kind(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case KindScreencast, KindSlideshow:
		return normalized, true
	default:
		return "", false
	}
}

// IsProcessing returns true when the status reflects an in-flight operation.
func (i Item) IsProcessing() bool {
	_, ok := processingStatuses[i.Status]
	return ok
}

// IsProcessingStatus reports whether a status reflects an in-flight operation.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// RollbackStatus returns the status an interrupted processing item returns to.
// The second return value is false when the status has no rollback target.
func RollbackStatus(status Status) (Status, bool) {
	target, ok := stageRollback[status]
	return target, ok
}

// IsUserStopReason reports whether a review reason represents a user-initiated stop.
func IsUserStopReason(reason string) bool {
	return strings.EqualFold(strings.TrimSpace(reason), UserStopReason)
}

// InitProgress resets progress fields for a new stage.
// If ProgressStage is currently empty, it is set to the provided stage value;
// otherwise the existing stage is preserved to support resume scenarios.
func (i *Item) InitProgress(stage, message string) {
	if i.ProgressStage == "" {
		i.ProgressStage = stage
	}
	i.ProgressMessage = message
	i.ProgressPercent = 0
	i.ErrorMessage = ""
}

// SetProgress updates all three progress fields atomically.
func (i *Item) SetProgress(stage, message string, percent float64) {
	i.ProgressStage = stage
	i.ProgressMessage = message
	i.ProgressPercent = percent
}

// SetProgressComplete sets progress to 100% with the given stage and message.
func (i *Item) SetProgressComplete(stage, message string) {
	i.SetProgress(stage, message, 100)
}

// SetFailed marks the item as failed with the given error message.
// Clears heartbeat and sets progress fields appropriately.
func (i *Item) SetFailed(message string) {
	i.Status = StatusFailed
	i.ErrorMessage = message
	i.ProgressPercent = 0
	i.ProgressMessage = message
	i.LastHeartbeat = nil
	i.ProgressStage = "Failed"
}

// ProcessingLane partitions workflow into user-facing foreground stages and background work.
type ProcessingLane string

const (
	LaneForeground ProcessingLane = "foreground"
	LaneBackground ProcessingLane = "background"
)

// LaneForItem maps a queue item to its processing lane.
//
// Transcription, analysis, editing, and chaptering run in the foreground lane
// so one item's media work completes quickly; narration, illustration,
// rendering, and publishing are slower API-bound work that runs behind it.
func LaneForItem(item *Item) ProcessingLane {
	if item == nil {
		return LaneForeground
	}
	switch item.Status {
	case StatusPending, StatusTranscribing, StatusTranscribed, StatusAnalyzing,
		StatusAnalyzed, StatusEditing, StatusEdited, StatusChaptering:
		return LaneForeground
	case StatusChaptered, StatusNarrating, StatusNarrated, StatusIllustrating,
		StatusIllustrated, StatusRendering, StatusRendered, StatusPublishing,
		StatusCompleted:
		return LaneBackground
	default:
		return LaneForeground
	}
}
