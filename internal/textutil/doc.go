// Package textutil provides text processing utilities for filename
// sanitization and title derivation.
//
// The primary use cases are:
//   - Sanitizing filenames and path segments for safe filesystem use
//   - Deriving presentable comic titles from input file stems
package textutil
