package gemini

import (
	"fmt"
	"strings"
)

// Styles maps style names to the visual description used in image prompts.
var Styles = map[string]string{
	"flat-illustration": "modern flat illustration with soft colors",
	"infographic":       "clean infographic with simple shapes and a restrained palette",
	"technical-diagram": "clean technical diagram with labeled components",
	"watercolor":        "soft watercolor painting",
	"isometric":         "isometric 3D illustration",
	"minimal":           "minimal line-art illustration on a plain background",
}

// DefaultStyle is used when configuration does not name one.
const DefaultStyle = "flat-illustration"

// StyleDescription resolves a configured style name, falling back to the
// default for unknown names.
func StyleDescription(style string) string {
	if desc, ok := Styles[strings.TrimSpace(strings.ToLower(style))]; ok {
		return desc
	}
	return Styles[DefaultStyle]
}

// SlidePrompt builds the image generation prompt for one slide.
func SlidePrompt(title, body, style string) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "A %s representing '%s'.\n", StyleDescription(style), strings.TrimSpace(title))
	if body = strings.TrimSpace(body); body != "" {
		builder.WriteString(body)
		builder.WriteString("\n")
	}
	builder.WriteString("The image should be visually appealing and relevant to the content.\n")
	builder.WriteString("Use clear visual hierarchy, meaningful icons, and professional composition.")
	return builder.String()
}
