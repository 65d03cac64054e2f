package retrieval

import (
	"bytes"
	"encoding/json"
)

// Subset is the reduced data handed to the answer generator, keyed by source
// name in the order the plan produced them.
type Subset struct {
	names []string
	data  map[string]string
}

func NewSubset() *Subset {
	return &Subset{data: make(map[string]string)}
}

// Add stores text under name unless name is already present. The first entry wins.
func (s *Subset) Add(name, text string) bool {
	if _, ok := s.data[name]; ok {
		return false
	}
	s.names = append(s.names, name)
	s.data[name] = text
	return true
}

func (s *Subset) Has(name string) bool {
	_, ok := s.data[name]
	return ok
}

func (s *Subset) Get(name string) string { return s.data[name] }

func (s *Subset) Names() []string { return append([]string(nil), s.names...) }

func (s *Subset) Len() int { return len(s.names) }

func (s *Subset) Empty() bool { return len(s.names) == 0 }

// MarshalJSON writes the subset as an object whose keys keep insertion order.
func (s *Subset) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range s.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(s.data[name])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
