// Package gemini wraps the Gemini generateContent endpoint to render slide
// illustration images from text prompts.
package gemini
