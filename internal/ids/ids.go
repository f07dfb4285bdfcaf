// Package ids provides the identifier generators used when records are created.
package ids

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Generator yields unique opaque identifiers.
type Generator interface {
	NewID() string
}

// UUID generates random version 4 UUID strings.
type UUID struct{}

func (UUID) NewID() string { return uuid.NewString() }

// Sequence generates prefix-1, prefix-2, ... and is safe for concurrent use.
type Sequence struct {
	mu     sync.Mutex
	prefix string
	next   int
}

func NewSequence(prefix string) *Sequence {
	return &Sequence{prefix: prefix}
}

func (s *Sequence) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	return fmt.Sprintf("%s-%d", s.prefix, s.next)
}

var (
	_ Generator = UUID{}
	_ Generator = (*Sequence)(nil)
)
