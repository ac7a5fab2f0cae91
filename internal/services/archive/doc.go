// Package archive uploads published videos and their sidecar files (chapters,
// transcripts, YouTube descriptions) to an S3 bucket.
package archive
