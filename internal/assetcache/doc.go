// Package assetcache stores generated narration audio and slide images keyed
// by a BLAKE3 hash of the content that produced them.
//
// Regenerating a deck only re-synthesizes the slides whose narration text or
// prompt actually changed; everything else is served from the cache. A JSON
// manifest maps logical keys to content hashes and cached files, and a file
// lock serializes manifest updates so the CLI and daemon can share one cache
// directory.
package assetcache
