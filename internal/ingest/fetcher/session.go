package fetcher

import "time"

// session holds the per-invocation retry state of one category refresh:
// the current offset, the candidate indices along both escalation axes,
// the escalating timeout and the request budget. It is created at the
// start of a Refresh call and discarded at the end.
type session struct {
	offset      int
	pageSizeIdx int
	delayIdx    int
	timeout     time.Duration
	requests    int
	stored      bool
}

func newSession(cfg Config, offset int) *session {
	return &session{
		offset:  offset,
		timeout: cfg.BaseTimeout,
	}
}

// pageSize returns the currently selected page-size candidate.
func (s *session) pageSize(cfg Config) int {
	return cfg.PageSizes[s.pageSizeIdx]
}

// delay returns the currently selected inter-request delay candidate.
func (s *session) delay(cfg Config) time.Duration {
	return cfg.Delays[s.delayIdx]
}

// onTransient escalates after a transient network failure: the timeout
// grows by one step and the pacing moves to the next coarser delay if one
// remains. It reports whether the session must abort because the timeout
// ceiling was exceeded.
func (s *session) onTransient(cfg Config) (abort bool) {
	s.timeout += cfg.TimeoutStep
	if s.delayIdx+1 < len(cfg.Delays) {
		s.delayIdx++
	}
	return s.timeout > cfg.TimeoutCeiling
}

// onEndpointFailure handles a non-success status: the same offset is
// retried with a larger page size if one remains, then with a longer
// pause; with both axes exhausted the session is done.
func (s *session) onEndpointFailure(cfg Config) (exhausted bool) {
	if s.pageSizeIdx+1 < len(cfg.PageSizes) {
		s.pageSizeIdx++
		return false
	}
	if s.delayIdx+1 < len(cfg.Delays) {
		s.delayIdx++
		return false
	}
	return true
}

// onSuccess records a stored page: backoff resets and the offset advances
// to the number of records now stored for the category.
func (s *session) onSuccess(storedCount int) {
	s.stored = true
	s.delayIdx = 0
	s.offset = storedCount
}

// countRequest increments the request counter and reports whether the
// hard per-session ceiling is now exceeded.
func (s *session) countRequest(cfg Config) (exceeded bool) {
	s.requests++
	return s.requests > cfg.MaxRequests
}
