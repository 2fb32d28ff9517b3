package jobs

import "strings"

// ParseRoute extracts the run ID and action from a URL path like
// /api/runs/{id}/{action}. apiPrefix should be like "/api/runs/". A bare
// 8-hex ID is normalized by adding RunIDPrefix. Returns ok=false when the
// path has no action or the ID is malformed.
func ParseRoute(path, apiPrefix string) (runID, action string, ok bool) {
	parts := strings.Split(strings.TrimPrefix(path, apiPrefix), "/")
	if len(parts) < 2 || parts[1] == "" {
		return "", "", false
	}

	runID = parts[0]
	if !strings.HasPrefix(runID, RunIDPrefix) {
		runID = RunIDPrefix + runID
	}
	if !IsRunID(runID) {
		return "", "", false
	}
	return runID, parts[1], true
}
