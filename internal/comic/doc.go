// Package comic defines the per-item unit of work flowing through the
// conversion pipeline: the Comic entity, its status lifecycle, and the event
// stream used to report progress to the caller.
//
// A Comic is owned by exactly one goroutine at a time. The dispatcher creates
// it, hands it to a worker, and for mobi output hands it once more to the
// conversion supervisor. Status transitions are monotonic; Success and Failed
// are absorbing.
package comic
