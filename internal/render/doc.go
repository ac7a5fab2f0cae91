// Package render produces the final video. For screencasts it embeds the
// chapter metadata into the edited cut; for slideshows it renders each image
// plus narration clip into a short video, concatenates them, and embeds
// chapters at the slide boundaries.
package render
