// Package preflight provides readiness checks for the filesystem paths and
// external tools vidfetch depends on.
//
// These checks run in two contexts:
//   - "vidfetch serve" calls RunAll at startup and refuses to listen when the
//     download directory is unusable.
//   - The "vidfetch status" command and the /api/status endpoint report the
//     individual results (CheckDirectoryAccess, CheckSystemDeps, CheckUpstream).
package preflight
