// Package preflight provides readiness checks for the filesystem paths and
// external binaries a conversion batch depends on.
//
// These checks run in two contexts:
//   - The convert command calls RunAll before starting a batch. If any check
//     fails, the run aborts before touching input files.
//   - The CLI "bindery check" command uses the same checks to display
//     environment health.
//
// Every check is local (stat, access, statfs, PATH lookup); nothing here
// touches the network.
package preflight
