// Package dedup suppresses double counting of usage events.
//
// Claude Code writes the same API response to more than one log file
// (resumed and forked sessions copy earlier history). An event is
// identified by its message id together with its request id; once such a
// pair has been seen, every later event with the same pair is dropped,
// whichever project or file it comes from.
//
// Events missing either id cannot be identified and are never suppressed.
package dedup

// separator joins the two ids. It is not expected in either id, so
// distinct pairs produce distinct keys.
const separator = "\x00"

// Key builds the composite identity of an event.
//
// Returns false if either id is empty.
func Key(messageID, requestID string) (string, bool) {
	if messageID == "" || requestID == "" {
		return "", false
	}
	return messageID + separator + requestID, true
}

// Set remembers every key seen during one aggregation run. It never shrinks.
//
// A Set is not safe for concurrent use; it belongs to the single loop that
// folds events into the aggregate.
type Set struct {
	seen map[string]struct{}
}

// New returns an empty set.
func New() *Set {
	return &Set{seen: make(map[string]struct{})}
}

// SeenBefore reports whether the pair was already recorded, and records it
// if it was not. Incomplete pairs always report false and are not recorded.
func (s *Set) SeenBefore(messageID, requestID string) bool {
	key, ok := Key(messageID, requestID)
	if !ok {
		return false
	}
	if _, dup := s.seen[key]; dup {
		return true
	}
	s.seen[key] = struct{}{}
	return false
}

// Len returns the number of recorded keys.
func (s *Set) Len() int {
	return len(s.seen)
}
