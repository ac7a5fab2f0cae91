package awstranscribe

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"reel/internal/transcript"
)

// jobResult mirrors the JSON document Transcribe writes to the output bucket.
type jobResult struct {
	Results struct {
		Transcripts []struct {
			Transcript string `json:"transcript"`
		} `json:"transcripts"`
		Items []resultItem `json:"items"`
	} `json:"results"`
	Status string `json:"status"`
}

type resultItem struct {
	StartTime    string `json:"start_time,omitempty"`
	EndTime      string `json:"end_time,omitempty"`
	Type         string `json:"type"`
	Alternatives []struct {
		Confidence string `json:"confidence"`
		Content    string `json:"content"`
	} `json:"alternatives"`
}

// toTranscript converts a Transcribe job result into the provider-independent
// form. Pronunciation items become timestamped words; punctuation items are
// folded into the preceding word's text.
func toTranscript(result jobResult, language string) (*transcript.Transcript, error) {
	if len(result.Results.Transcripts) == 0 {
		return nil, errors.New("job result carries no transcript")
	}

	tr := &transcript.Transcript{
		Text:     strings.TrimSpace(result.Results.Transcripts[0].Transcript),
		Language: language,
	}
	for _, item := range result.Results.Items {
		if len(item.Alternatives) == 0 {
			continue
		}
		content := item.Alternatives[0].Content
		if item.Type == "punctuation" {
			if n := len(tr.Words); n > 0 {
				tr.Words[n-1].Text += content
			}
			continue
		}
		start, err := strconv.ParseFloat(item.StartTime, 64)
		if err != nil {
			return nil, fmt.Errorf("parse start time %q: %w", item.StartTime, err)
		}
		end, err := strconv.ParseFloat(item.EndTime, 64)
		if err != nil {
			return nil, fmt.Errorf("parse end time %q: %w", item.EndTime, err)
		}
		tr.Words = append(tr.Words, transcript.Word{Text: content, Start: start, End: end})
	}
	if len(tr.Words) > 0 {
		tr.Duration = tr.Words[len(tr.Words)-1].End
	}
	if err := tr.Validate(); err != nil {
		return nil, err
	}
	return tr, nil
}
