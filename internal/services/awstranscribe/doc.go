// Package awstranscribe provides the AWS Transcribe speech-to-text provider:
// audio is uploaded to S3, a transcription job runs named after the item's
// content hash, and the finished result is converted to the shared transcript
// form with word-level timestamps.
package awstranscribe
