package scrape

// Session is the dedup set for one scrape, keyed by normalized asset name.
// The caller owns it; it is not safe for concurrent use.
type Session struct {
	seen map[string]struct{}
}

// NewSession returns an empty Session.
func NewSession() *Session {
	return &Session{seen: make(map[string]struct{})}
}

// Claim marks name as handled and reports whether it was new.
func (s *Session) Claim(name string) bool {
	if _, ok := s.seen[name]; ok {
		return false
	}
	s.seen[name] = struct{}{}
	return true
}

// Len returns how many names were claimed since the last Reset.
func (s *Session) Len() int { return len(s.seen) }

// Reset forgets every claimed name.
func (s *Session) Reset() {
	clear(s.seen)
}
