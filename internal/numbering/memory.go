package numbering

import (
	"context"
	"fmt"
	"sync"
)

// MemorySequence хранит счётчики в памяти процесса.
// Первое обращение к месяцу засевает счётчик из LastNumberFinder.
type MemorySequence struct {
	mu       sync.Mutex
	finder   LastNumberFinder
	counters map[string]int
}

// NewMemorySequence создаёт счётчик в памяти. finder может быть nil.
func NewMemorySequence(finder LastNumberFinder) *MemorySequence {
	return &MemorySequence{
		finder:   finder,
		counters: make(map[string]int),
	}
}

// Next выдаёт следующий номер для префикса.
func (s *MemorySequence) Next(ctx context.Context, prefix string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.counters[prefix]
	if !ok && s.finder != nil {
		last, err := s.finder.LastNumber(ctx, prefix)
		if err != nil {
			return 0, fmt.Errorf("seed sequence: %w", err)
		}
		current = NextAfter(last, prefix) - 1
	}

	current++
	s.counters[prefix] = current
	return current, nil
}
