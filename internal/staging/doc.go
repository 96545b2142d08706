// Package staging manages the on-disk workspace used while comics are being
// converted. Each CLI run gets its own batch directory under the configured
// staging root, with one work directory per comic inside it. CleanStale sweeps
// leftover batch directories from interrupted runs at startup.
package staging
