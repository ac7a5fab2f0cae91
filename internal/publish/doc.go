// Package publish finishes an item: the rendered video and its companion
// artifacts move into the library directory, optionally go to the S3 archive
// bucket, and the staging directory is cleared.
package publish
