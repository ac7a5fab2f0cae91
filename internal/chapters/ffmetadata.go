package chapters

import (
	"fmt"
	"strings"
)

// FFMetadata renders the chapter set as an FFMETADATA1 document suitable for
// ffmpeg's metadata muxer. Each chapter ends where the next begins; the final
// chapter ends at the set duration.
func FFMetadata(set *Set) string {
	var b strings.Builder
	b.WriteString(";FFMETADATA1\n")
	if set == nil {
		return b.String()
	}
	for i, marker := range set.Markers {
		start := int64(marker.Start * 1000)
		var end int64
		if i+1 < len(set.Markers) {
			end = int64(set.Markers[i+1].Start * 1000)
		} else {
			end = int64(set.Duration * 1000)
		}
		if end <= start {
			continue
		}
		b.WriteString("\n[CHAPTER]\n")
		b.WriteString("TIMEBASE=1/1000\n")
		fmt.Fprintf(&b, "START=%d\n", start)
		fmt.Fprintf(&b, "END=%d\n", end)
		fmt.Fprintf(&b, "title=%s\n", escapeMetadataValue(marker.Title))
	}
	return b.String()
}

// escapeMetadataValue escapes the characters the ffmetadata format treats
// specially: '=', ';', '#', '\' and newline.
func escapeMetadataValue(value string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		"=", `\=`,
		";", `\;`,
		"#", `\#`,
		"\n", `\`+"\n",
	)
	return replacer.Replace(value)
}
