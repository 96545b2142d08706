// Package archive opens comic archives and yields their pages as decoded
// images. Three container formats are supported, dispatched by file
// extension: CBZ/ZIP via archive/zip, CBR/RAR via rardecode, and PDF via
// go-fitz page rendering. Pages are returned in natural reading order and
// decoded lazily so large books never sit in memory whole.
package archive
