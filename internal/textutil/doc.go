// Package textutil provides text processing utilities for fingerprinting,
// similarity, title derivation, and filename sanitization.
//
// The primary use cases are:
//   - Creating token-based fingerprints from transcript windows for comparison
//   - Computing cosine similarity between fingerprints to find topic shifts
//   - Deriving presentable titles from source file paths
//   - Sanitizing filenames and path segments for safe filesystem use
//
// Fingerprints use term frequency vectors normalized for efficient comparison.
// The tokenization process lowercases text, splits on non-alphanumeric
// characters, and filters tokens shorter than 3 characters.
package textutil
