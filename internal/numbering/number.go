// Package numbering выдаёт человекочитаемые номера заказов вида YYMM-NNN.
//
// Нумерация ведётся отдельно для каждого месяца и начинается с 001.
// Номер за месяц продолжает наибольший уже выданный номер с тем же префиксом.
package numbering

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// MaxSequence - наибольший порядковый номер, помещающийся в три цифры.
const MaxSequence = 999

var (
	// ErrSequenceExhausted возвращается, когда за месяц выдано больше MaxSequence номеров.
	ErrSequenceExhausted = errors.New("order number sequence exhausted for month")

	numberRe = regexp.MustCompile(`^\d{4}-\d{3}$`)
)

// Sequence атомарно выдаёт следующий порядковый номер для префикса месяца.
type Sequence interface {
	Next(ctx context.Context, prefix string) (int, error)
}

// LastNumberFinder находит лексикографически наибольший номер заказа с префиксом prefix+"-".
// Пустая строка означает, что номеров за месяц ещё нет.
type LastNumberFinder interface {
	LastNumber(ctx context.Context, prefix string) (string, error)
}

// Prefix возвращает префикс месяца: две цифры года и две цифры месяца.
func Prefix(t time.Time) string {
	return t.Format("0601")
}

// Format собирает номер из префикса и порядкового номера.
func Format(prefix string, seq int) string {
	return fmt.Sprintf("%s-%03d", prefix, seq)
}

// Valid проверяет формат номера заказа.
func Valid(number string) bool {
	return numberRe.MatchString(number)
}

// ParseSequence извлекает порядковый номер из номера с заданным префиксом.
func ParseSequence(number, prefix string) (int, bool) {
	suffix, ok := strings.CutPrefix(number, prefix+"-")
	if !ok || suffix == "" {
		return 0, false
	}
	seq, err := strconv.Atoi(suffix)
	if err != nil || seq < 0 {
		return 0, false
	}
	return seq, true
}

// NextAfter возвращает порядковый номер, следующий за last.
func NextAfter(last, prefix string) int {
	seq, ok := ParseSequence(last, prefix)
	if !ok {
		return 1
	}
	return seq + 1
}

// Allocator выдаёт номера заказов на основе Sequence.
type Allocator struct {
	seq Sequence
	now func() time.Time
}

// NewAllocator создаёт аллокатор с системными часами.
func NewAllocator(seq Sequence) *Allocator {
	return &Allocator{seq: seq, now: time.Now}
}

// WithClock подменяет источник текущего времени.
func (a *Allocator) WithClock(now func() time.Time) *Allocator {
	a.now = now
	return a
}

// Allocate выдаёт следующий номер для текущего месяца.
func (a *Allocator) Allocate(ctx context.Context) (string, error) {
	return a.AllocateFor(ctx, a.now())
}

// AllocateFor выдаёт следующий номер для месяца момента t.
func (a *Allocator) AllocateFor(ctx context.Context, t time.Time) (string, error) {
	prefix := Prefix(t)

	seq, err := a.seq.Next(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("next sequence for %s: %w", prefix, err)
	}
	if seq > MaxSequence {
		return "", fmt.Errorf("%w: %s", ErrSequenceExhausted, prefix)
	}

	return Format(prefix, seq), nil
}
