package happiness

import (
	"github.com/rotisserie/eris"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Score is a single key/value entry of a Scores map.
type Score struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

// Scores is a string to number mapping that keeps the key order the backend
// produced. The order carries meaning (rank, correlation strength) and is
// never re-sorted.
type Scores struct {
	m *orderedmap.OrderedMap[string, float64]
}

// NewScores builds a Scores map from the given entries in order.
func NewScores(entries ...Score) *Scores {
	s := &Scores{m: orderedmap.New[string, float64]()}
	for _, e := range entries {
		s.m.Set(e.Key, e.Value)
	}
	return s
}

// Len returns the number of entries. A nil Scores is empty.
func (s *Scores) Len() int {
	if s == nil || s.m == nil {
		return 0
	}
	return s.m.Len()
}

// Get returns the value stored under key.
func (s *Scores) Get(key string) (float64, bool) {
	if s == nil || s.m == nil {
		return 0, false
	}
	return s.m.Get(key)
}

// Keys returns the keys in producer order.
func (s *Scores) Keys() []string {
	if s.Len() == 0 {
		return nil
	}
	keys := make([]string, 0, s.m.Len())
	for pair := s.m.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Entries returns every entry in producer order.
func (s *Scores) Entries() []Score {
	return s.Head(s.Len())
}

// Head returns at most n leading entries in producer order.
func (s *Scores) Head(n int) []Score {
	if s.Len() == 0 || n <= 0 {
		return nil
	}
	if n > s.m.Len() {
		n = s.m.Len()
	}
	out := make([]Score, 0, n)
	for pair := s.m.Oldest(); pair != nil && len(out) < n; pair = pair.Next() {
		out = append(out, Score{Key: pair.Key, Value: pair.Value})
	}
	return out
}

// FirstKey returns the leading key, or "" when empty.
func (s *Scores) FirstKey() string {
	if s.Len() == 0 {
		return ""
	}
	return s.m.Oldest().Key
}

// UnmarshalJSON decodes a JSON object while preserving key order.
func (s *Scores) UnmarshalJSON(data []byte) error {
	m := orderedmap.New[string, float64]()
	if err := m.UnmarshalJSON(data); err != nil {
		return eris.Wrap(err, "decode ordered scores")
	}
	s.m = m
	return nil
}

// MarshalJSON encodes the map as a JSON object in producer order.
func (s *Scores) MarshalJSON() ([]byte, error) {
	if s == nil || s.m == nil {
		return []byte("{}"), nil
	}
	return s.m.MarshalJSON()
}
