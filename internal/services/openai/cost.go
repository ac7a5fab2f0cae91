package openai

import (
	"github.com/shopspring/decimal"
)

// Published usage pricing, in USD.
var (
	transcriptionPerMinute = decimal.NewFromFloat(0.006)
	speechPerMillionChars  = decimal.NewFromInt(15)
)

// EstimateTranscriptionCost returns the expected USD cost of transcribing a
// recording of the given length.
func EstimateTranscriptionCost(seconds float64) decimal.Decimal {
	if seconds <= 0 {
		return decimal.Zero
	}
	minutes := decimal.NewFromFloat(seconds).Div(decimal.NewFromInt(60))
	return transcriptionPerMinute.Mul(minutes).Round(4)
}

// EstimateSpeechCost returns the expected USD cost of synthesizing the given
// narration text.
func EstimateSpeechCost(text string) decimal.Decimal {
	chars := len([]rune(text))
	if chars == 0 {
		return decimal.Zero
	}
	return speechPerMillionChars.
		Mul(decimal.NewFromInt(int64(chars))).
		Div(decimal.NewFromInt(1_000_000)).
		Round(4)
}
