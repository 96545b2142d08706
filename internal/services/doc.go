// Package services defines shared utilities consumed by the conversion
// pipeline and external tool integrations.
//
// Key responsibilities:
//   - Structured error markers plus the Wrap helper that keep failure
//     messages uniform across stages and map them to operator hints.
//   - Subpackages holding thin clients for external binaries (kindlegen)
//     with process abstractions that make them testable.
package services
