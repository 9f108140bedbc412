package vocab

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownChar reports a character outside the table. Callers decide the
// fallback: fail the encode, or use EncodeLossy and drop the rune.
var ErrUnknownChar = errors.New("character not in vocabulary")

// Table is a bijective character-to-ID mapping built from a training corpus.
// IDs are contiguous from 0 in first-seen order; two reserved sentinel IDs
// sit past the real characters.
type Table struct {
	chars []rune
	index map[rune]int
}

// Build scans every rune of every line and assigns IDs in first-seen order.
// An empty corpus yields a table holding only the two sentinels.
func Build(lines []string) *Table {
	t := &Table{index: make(map[rune]int)}
	for _, line := range lines {
		for _, r := range line {
			if _, ok := t.index[r]; !ok {
				t.index[r] = len(t.chars)
				t.chars = append(t.chars, r)
			}
		}
	}
	return t
}

// BeginID is the begin-of-sequence sentinel.
func (t *Table) BeginID() int {
	return len(t.chars)
}

// EndID is the end-of-sequence / pad sentinel.
func (t *Table) EndID() int {
	return len(t.chars) + 1
}

// Size counts distinct corpus characters plus the two sentinels.
func (t *Table) Size() int {
	return len(t.chars) + 2
}

// ID resolves a single character.
func (t *Table) ID(r rune) (int, bool) {
	id, ok := t.index[r]
	return id, ok
}

// Char resolves a single non-sentinel ID.
func (t *Table) Char(id int) (rune, bool) {
	if id < 0 || id >= len(t.chars) {
		return 0, false
	}
	return t.chars[id], true
}

// Chars returns the characters in ID order.
func (t *Table) Chars() []rune {
	out := make([]rune, len(t.chars))
	copy(out, t.chars)
	return out
}

// Encode converts a line into a fixed-width ID sequence. Position 0 is the
// begin sentinel; characters fill from position 1; anything past maxLen-1 is
// silently truncated. With withEnd, remaining positions are padded with the
// end sentinel and the result always has length maxLen. Without it (the
// inference form) the sequence stops after the last content character so
// generation can continue from an open-ended prefix.
func (t *Table) Encode(line string, maxLen int, withEnd bool) ([]int, error) {
	if maxLen < 1 {
		return nil, fmt.Errorf("vocab: max length %d too small", maxLen)
	}
	out := make([]int, 1, maxLen)
	out[0] = t.BeginID()
	for _, r := range line {
		if len(out) >= maxLen {
			break
		}
		id, ok := t.index[r]
		if !ok {
			return nil, fmt.Errorf("vocab: %q: %w", r, ErrUnknownChar)
		}
		out = append(out, id)
	}
	if withEnd {
		for len(out) < maxLen {
			out = append(out, t.EndID())
		}
	}
	return out, nil
}

// EncodeLossy is Encode with unknown characters skipped. It reports how many
// runes were dropped so callers can surface the loss. The only remaining
// error is an invalid maxLen.
func (t *Table) EncodeLossy(line string, maxLen int, withEnd bool) ([]int, int, error) {
	var b strings.Builder
	dropped := 0
	for _, r := range line {
		if _, ok := t.index[r]; ok {
			b.WriteRune(r)
		} else {
			dropped++
		}
	}
	out, err := t.Encode(b.String(), maxLen, withEnd)
	if err != nil {
		return nil, 0, err
	}
	return out, dropped, nil
}

// Decode maps IDs back to text. Sentinel and out-of-range IDs produce
// nothing, so decoding a padded sequence recovers just the content.
func (t *Table) Decode(ids []int) string {
	var b strings.Builder
	for _, id := range ids {
		if r, ok := t.Char(id); ok {
			b.WriteRune(r)
		}
	}
	return b.String()
}
