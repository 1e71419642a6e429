// Package memory is a process-local history slot for tests and --no-history runs.
package memory

import (
	"context"
	"sync"
)

type Slot struct {
	mu   sync.Mutex
	data map[string][]byte
}

func New() *Slot {
	return &Slot{data: map[string][]byte{}}
}

func (s *Slot) Load(_ context.Context, name string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[name]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (s *Slot) Save(_ context.Context, name string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[name] = append([]byte(nil), payload...)
	return nil
}

func (s *Slot) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, name)
	return nil
}
