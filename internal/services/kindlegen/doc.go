// Package kindlegen wraps Amazon's kindlegen CLI, which converts a
// fixed-layout EPUB into a MOBI. Conversions run as detached child
// processes: Start returns a Process handle the conversion supervisor polls
// with TryWait and settles with Wait.
package kindlegen
