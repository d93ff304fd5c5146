// Package preflight provides readiness checks for the filesystem paths and
// external binaries the packaging pipeline depends on.
//
// These checks run in two contexts:
//   - The pipeline calls CheckDirectoryAccess before processing a story,
//     failing fast instead of discovering a broken environment mid-run.
//   - The CLI "storypack deps" command uses RunAll and CheckSystemDeps to
//     display environment health.
package preflight
