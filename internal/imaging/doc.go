// Package imaging turns decoded comic pages into device-ready JPEGs.
// Pages are scaled to fit a device profile, optionally converted to
// grayscale with a contrast stretch, and written out in reading order.
package imaging
