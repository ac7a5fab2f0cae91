package highlights

import (
	"regexp"
	"strings"
)

// AnnotationOptions tunes how marked-up transcript documents become segments.
type AnnotationOptions struct {
	// MergeGap joins highlighted blocks whose timestamps are at most this
	// many seconds apart into one segment. Zero uses DefaultMergeGap.
	MergeGap float64
	// BlockLength is the assumed length of the final highlighted block, which
	// has no following timestamp to bound it. Zero uses DefaultBlockLength.
	BlockLength float64
}

// Defaults for annotation extraction, in seconds.
const (
	DefaultMergeGap    = 10.0
	DefaultBlockLength = 10.0
)

var (
	annotationTimePattern = regexp.MustCompile(`\*\*\[(\d{1,2}:\d{2}(?::\d{2})?)\]\*\*:?\s*(.*)`)
	doubleEqualsPattern   = regexp.MustCompile(`==([^=]+)==`)
	underlinePattern      = regexp.MustCompile(`<u>(.*?)</u>`)
)

type annotationBlock struct {
	start       float64
	text        string
	highlighted bool
}

// ExtractAnnotations finds highlighted passages in a timestamped markdown
// document. A passage is highlighted when its block, the text under a
// "**[MM:SS]**" marker, contains "==text==" or "<u>text</u>". Each block runs
// until the next marker; nearby highlighted blocks merge into one segment.
func ExtractAnnotations(content string, opts AnnotationOptions) []Segment {
	if opts.MergeGap <= 0 {
		opts.MergeGap = DefaultMergeGap
	}
	if opts.BlockLength <= 0 {
		opts.BlockLength = DefaultBlockLength
	}

	var blocks []annotationBlock
	for _, line := range strings.Split(content, "\n") {
		m := annotationTimePattern.FindStringSubmatch(line)
		if m != nil {
			start, err := ParseTimestamp(m[1])
			if err != nil {
				continue
			}
			blocks = append(blocks, annotationBlock{start: start})
			line = m[2]
		}
		if len(blocks) == 0 {
			continue
		}
		block := &blocks[len(blocks)-1]
		if doubleEqualsPattern.MatchString(line) || underlinePattern.MatchString(line) {
			block.highlighted = true
		}
		cleaned := strings.TrimSpace(stripMarkup(line))
		if cleaned == "" {
			continue
		}
		if block.text != "" {
			block.text += " "
		}
		block.text += cleaned
	}

	var segments []Segment
	for i, block := range blocks {
		if !block.highlighted {
			continue
		}
		end := block.start + opts.BlockLength
		if i+1 < len(blocks) {
			end = blocks[i+1].start
		}
		if end <= block.start {
			end = block.start + opts.BlockLength
		}
		if len(segments) > 0 {
			last := &segments[len(segments)-1]
			if block.start-last.End <= opts.MergeGap {
				last.End = end
				last.Text = strings.TrimSpace(last.Text + " " + block.text)
				continue
			}
		}
		segments = append(segments, Segment{Start: block.start, End: end, Text: block.text})
	}

	for i := range segments {
		segments[i].Title = titleFromText(segments[i].Text)
	}
	return segments
}

// stripMarkup removes the highlight markers while keeping the marked text.
func stripMarkup(line string) string {
	line = doubleEqualsPattern.ReplaceAllString(line, "$1")
	line = underlinePattern.ReplaceAllString(line, "$1")
	return line
}

// titleFromText takes the first three words of a passage as its overlay title.
func titleFromText(text string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	if len(words) <= 3 {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:3], " ") + "..."
}
