// Package preflight provides readiness checks for the external services and
// filesystem paths Reel depends on.
//
// These checks run in two contexts:
//   - The workflow manager calls RunFeatureChecks at daemon startup. If any
//     check fails, processing does not start; a doomed run would otherwise
//     burn API spend before failing.
//   - The CLI "reel status" command uses individual check functions
//     (CheckOpenAI, CheckDirectoryAccess) to display service health.
//
// Each check is gated by its config toggle; disabled features are skipped.
package preflight
