package discovery

// Rejection reasons reported to metrics.
const (
	RejectNoStatistics = "no_statistics"
	RejectNotShorts    = "not_shorts"
	RejectShorts       = "shorts"
	RejectMinViews     = "min_views"
)

// Accept reports whether a joined candidate passes the content-type and
// view-floor rules. Duration, upload period and language are enforced by
// the search provider and are not checked again here.
func Accept(c VideoCandidate, s VideoStatistics, f SearchFilters) bool {
	return rejectReason(c, s, f) == ""
}

// rejectReason applies the filter rules in order and returns the first
// failing rule, or "" when the candidate is accepted.
func rejectReason(c VideoCandidate, s VideoStatistics, f SearchFilters) string {
	short := IsShortForm(s.DurationSeconds, c.Title)
	switch {
	case f.ShortsOnly && !short:
		return RejectNotShorts
	case f.ExcludeShorts && short:
		return RejectShorts
	case s.ViewCount < f.MinViews:
		return RejectMinViews
	}
	return ""
}
