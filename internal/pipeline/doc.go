// Package pipeline drives a batch of comics through extraction, page
// processing, and packaging. The dispatcher registers every input up front,
// fans entities out across a bounded worker pool, and reports progress
// through a single event stream. MOBI output adds a conversion supervisor
// that babysits detached kindlegen processes after the pool has moved on.
package pipeline
