package omdb

// Session tracks the external call budget and the rate-limit flag for one
// process run. Once rateLimited is set it stays set.
type Session struct {
	calls       int
	limit       int
	rateLimited bool
}

func NewSession(limit int) *Session {
	return &Session{limit: limit}
}

func (s *Session) Calls() int {
	return s.calls
}

func (s *Session) RateLimited() bool {
	return s.rateLimited
}

// allow reports whether another call fits the budget. Exhausting the budget
// sets the rate-limit flag.
func (s *Session) allow() bool {
	if s.rateLimited {
		return false
	}
	if s.limit > 0 && s.calls >= s.limit {
		s.rateLimited = true
		return false
	}
	return true
}

func (s *Session) record() {
	s.calls++
}

func (s *Session) markRateLimited() {
	s.rateLimited = true
}
