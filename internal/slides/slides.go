package slides

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Slide is one screen of a markdown deck.
type Slide struct {
	// Index is the zero-based position in the deck.
	Index int
	// Title is the first heading on the slide, or empty.
	Title string
	// Body is the visible markdown without speaker notes.
	Body string
	// Notes are the "^" speaker note lines, joined.
	Notes string
}

// Deck is a parsed markdown presentation.
type Deck struct {
	Slides []Slide
}

var (
	headingPattern  = regexp.MustCompile(`^#{1,6}\s+(.*)$`)
	emphasisPattern = regexp.MustCompile(`[*_` + "`" + `]+`)
	imagePattern    = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	linkPattern     = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
)

// ParseFile reads and parses a markdown deck from disk.
func ParseFile(path string) (*Deck, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read deck: %w", err)
	}
	return Parse(string(data))
}

// Parse splits markdown content into slides on "---" separator lines.
func Parse(content string) (*Deck, error) {
	if strings.TrimSpace(content) == "" {
		return nil, errors.New("deck is empty")
	}

	var (
		deck    Deck
		body    strings.Builder
		notes   []string
		title   string
		started bool
	)

	flush := func() {
		slide := Slide{
			Index: len(deck.Slides),
			Title: title,
			Body:  strings.TrimSpace(body.String()),
			Notes: strings.TrimSpace(strings.Join(notes, " ")),
		}
		if slide.Body != "" || slide.Notes != "" {
			deck.Slides = append(deck.Slides, slide)
		}
		body.Reset()
		notes = nil
		title = ""
		started = false
	}

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if isSeparator(trimmed) && started {
			flush()
			continue
		}
		if trimmed != "" {
			started = true
		}
		if strings.HasPrefix(trimmed, "^") {
			note := strings.TrimSpace(strings.TrimPrefix(trimmed, "^"))
			if note != "" {
				notes = append(notes, note)
			}
			continue
		}
		if title == "" {
			if match := headingPattern.FindStringSubmatch(trimmed); match != nil {
				title = strings.TrimSpace(match[1])
			}
		}
		body.WriteString(line)
		body.WriteByte('\n')
	}
	flush()

	if len(deck.Slides) == 0 {
		return nil, errors.New("deck has no slides")
	}
	return &deck, nil
}

// isSeparator matches Deckset slide breaks: a line of three or more dashes.
func isSeparator(line string) bool {
	if len(line) < 3 {
		return false
	}
	for _, r := range line {
		if r != '-' {
			return false
		}
	}
	return true
}

// NarrationText returns what the narrator should speak for a slide: speaker
// notes when present, otherwise the visible text stripped of markdown syntax.
func (s Slide) NarrationText() string {
	if s.Notes != "" {
		return s.Notes
	}
	return PlainText(s.Body)
}

// PromptText returns the text an image generator should illustrate: the title
// and visible body flattened to plain text.
func (s Slide) PromptText() string {
	plain := PlainText(s.Body)
	if s.Title != "" && !strings.Contains(plain, s.Title) {
		if plain == "" {
			return s.Title
		}
		return s.Title + ". " + plain
	}
	return plain
}

// PlainText strips markdown headings, emphasis, images, links, and list
// markers, collapsing the result onto one line.
func PlainText(markdown string) string {
	var parts []string
	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isSeparator(trimmed) {
			continue
		}
		if match := headingPattern.FindStringSubmatch(trimmed); match != nil {
			trimmed = match[1]
		}
		trimmed = imagePattern.ReplaceAllString(trimmed, "")
		trimmed = linkPattern.ReplaceAllString(trimmed, "$1")
		trimmed = strings.TrimLeft(trimmed, "-*+> ")
		trimmed = emphasisPattern.ReplaceAllString(trimmed, "")
		trimmed = strings.TrimSpace(trimmed)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, " ")
}
