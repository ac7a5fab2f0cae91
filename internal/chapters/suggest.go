package chapters

import (
	"strings"

	"reel/internal/pauses"
	"reel/internal/textutil"
	"reel/internal/transcript"
)

// SuggestOptions tunes the chapter suggestion heuristics.
type SuggestOptions struct {
	// PauseThreshold is the minimum silence, in seconds, for a gap to be a
	// candidate chapter boundary.
	PauseThreshold float64
	// MinConfidence drops candidates scoring below it.
	MinConfidence float64
	// WindowWords is how many words on each side of a candidate feed the
	// topic-shift comparison.
	WindowWords int
	// MinGapSeconds suppresses candidates that follow an accepted marker
	// too closely.
	MinGapSeconds float64
	// TitleWords is how many words open the chapter title.
	TitleWords int
	// Fillers are stripped before titles are built.
	Fillers []string
}

func (o *SuggestOptions) withDefaults() SuggestOptions {
	opts := *o
	if opts.PauseThreshold <= 0 {
		opts.PauseThreshold = 3.0
	}
	if opts.WindowWords <= 0 {
		opts.WindowWords = 30
	}
	if opts.MinGapSeconds <= 0 {
		opts.MinGapSeconds = 30
	}
	if opts.TitleWords <= 0 {
		opts.TitleWords = 6
	}
	return opts
}

// Suggest proposes chapter markers for a transcript. Long pauses become
// candidates, scored by pause length and by how much the vocabulary shifts
// between the words before and after the gap. The first marker is always at
// zero.
func Suggest(tr *transcript.Transcript, options SuggestOptions) *Set {
	opts := options.withDefaults()
	set := &Set{}
	if tr != nil {
		set.Duration = tr.Duration
	}
	set.Markers = append(set.Markers, Marker{Title: "Introduction", Start: 0, Confidence: 1})
	if tr == nil || len(tr.Words) < 2 {
		return set
	}

	candidates := pauses.Detect(tr, opts.PauseThreshold)
	if len(candidates) == 0 {
		return set
	}

	windows := buildWindows(tr, candidates, opts.WindowWords)
	corpus := textutil.NewCorpus()
	for _, window := range windows {
		corpus.Add(window.before)
		corpus.Add(window.after)
	}
	idf := corpus.IDF()

	lastAccepted := 0.0
	for i, candidate := range candidates {
		if candidate.End-lastAccepted < opts.MinGapSeconds {
			continue
		}
		window := windows[i]
		confidence := scoreCandidate(candidate, window, idf, opts.PauseThreshold)
		if confidence < opts.MinConfidence {
			continue
		}
		title := buildTitle(window.afterWords, opts.TitleWords, opts.Fillers)
		if title == "" {
			continue
		}
		set.Markers = append(set.Markers, Marker{
			Title:      title,
			Start:      candidate.End,
			Confidence: confidence,
		})
		lastAccepted = candidate.End
	}
	return set
}

type candidateWindow struct {
	before     *textutil.Fingerprint
	after      *textutil.Fingerprint
	afterWords []transcript.Word
}

func buildWindows(tr *transcript.Transcript, candidates []pauses.Interval, windowWords int) []candidateWindow {
	windows := make([]candidateWindow, len(candidates))
	for i, candidate := range candidates {
		boundary := len(tr.Words)
		for j, word := range tr.Words {
			if word.Start >= candidate.End {
				boundary = j
				break
			}
		}
		beforeStart := boundary - windowWords
		if beforeStart < 0 {
			beforeStart = 0
		}
		afterEnd := boundary + windowWords
		if afterEnd > len(tr.Words) {
			afterEnd = len(tr.Words)
		}
		windows[i] = candidateWindow{
			before:     textutil.NewFingerprint(joinWords(tr.Words[beforeStart:boundary])),
			after:      textutil.NewFingerprint(joinWords(tr.Words[boundary:afterEnd])),
			afterWords: tr.Words[boundary:afterEnd],
		}
	}
	return windows
}

// scoreCandidate blends pause length and topic shift into one confidence.
// A pause three times the threshold maxes out the length component.
func scoreCandidate(candidate pauses.Interval, window candidateWindow, idf map[string]float64, threshold float64) float64 {
	lengthScore := candidate.Duration() / (3 * threshold)
	if lengthScore > 1 {
		lengthScore = 1
	}

	before := window.before.WithIDF(idf)
	after := window.after.WithIDF(idf)
	shiftScore := 1 - textutil.CosineSimilarity(before, after)
	if before == nil || after == nil {
		shiftScore = 0.5
	}

	return 0.5*lengthScore + 0.5*shiftScore
}

func buildTitle(words []transcript.Word, titleWords int, fillers []string) string {
	var parts []string
	for _, word := range words {
		if transcript.IsFiller(word.Text, fillers) {
			continue
		}
		cleaned := strings.Trim(strings.TrimSpace(word.Text), ".,!?;:")
		if cleaned == "" {
			continue
		}
		parts = append(parts, cleaned)
		if len(parts) == titleWords {
			break
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return textutil.TitleCase(strings.Join(parts, " "))
}

func joinWords(words []transcript.Word) string {
	var b strings.Builder
	for i, word := range words {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(word.Text)
	}
	return b.String()
}
