package vocab

import (
	"errors"
	"testing"
)

func TestBuildFirstSeenOrder(t *testing.T) {
	table := Build([]string{"abc", "cba", "d"})

	want := map[rune]int{'a': 0, 'b': 1, 'c': 2, 'd': 3}
	for r, expect := range want {
		id, ok := table.ID(r)
		if !ok {
			t.Fatalf("missing %q", r)
		}
		if id != expect {
			t.Errorf("char %q: expected ID %d, got %d", r, expect, id)
		}
	}
	if table.Size() != 6 {
		t.Errorf("expected size 6 (4 chars + 2 sentinels), got %d", table.Size())
	}
	if table.BeginID() != 4 || table.EndID() != 5 {
		t.Errorf("expected sentinels 4/5, got %d/%d", table.BeginID(), table.EndID())
	}
}

func TestBijection(t *testing.T) {
	table := Build([]string{"cd api-keys | grep secret", "sudo rm -rf /tmp"})

	for _, r := range table.Chars() {
		id, ok := table.ID(r)
		if !ok {
			t.Fatalf("char %q missing from index", r)
		}
		back, ok := table.Char(id)
		if !ok || back != r {
			t.Errorf("char %q -> %d -> %q, bijection broken", r, id, back)
		}
	}

	// Sentinel IDs must not decode to characters.
	if _, ok := table.Char(table.BeginID()); ok {
		t.Error("begin sentinel decoded to a character")
	}
	if _, ok := table.Char(table.EndID()); ok {
		t.Error("end sentinel decoded to a character")
	}
}

func TestEmptyCorpus(t *testing.T) {
	table := Build(nil)
	if table.Size() != 2 {
		t.Errorf("empty corpus should yield only sentinels, got size %d", table.Size())
	}
	if table.BeginID() != 0 || table.EndID() != 1 {
		t.Errorf("expected sentinels 0/1, got %d/%d", table.BeginID(), table.EndID())
	}
}

func TestEncodeFixture(t *testing.T) {
	// First-seen order gives s,u,d,o the IDs 3,7,2,9 with sentinels 10/11.
	table := Build([]string{"xydsabcueo"})

	check := map[rune]int{'s': 3, 'u': 7, 'd': 2, 'o': 9}
	for r, expect := range check {
		if id, _ := table.ID(r); id != expect {
			t.Fatalf("fixture setup wrong: %q has ID %d, expected %d", r, id, expect)
		}
	}
	if table.BeginID() != 10 || table.EndID() != 11 {
		t.Fatalf("fixture setup wrong: sentinels %d/%d", table.BeginID(), table.EndID())
	}

	got, err := table.Encode("sudo", 20, true)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{10, 3, 7, 2, 9}
	for len(want) < 20 {
		want = append(want, 11)
	}
	if len(got) != 20 {
		t.Fatalf("expected length 20, got %d", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %d, got %d", i, want[i], got[i])
		}
	}
}

func TestEncodeFixedWidth(t *testing.T) {
	table := Build([]string{"ls -la"})
	lines := []string{"", "l", "ls", "ls -la", "ls -la ls -la ls -la"}

	for _, line := range lines {
		ids, err := table.Encode(line, 8, true)
		if err != nil {
			t.Fatalf("encode %q: %v", line, err)
		}
		if len(ids) != 8 {
			t.Errorf("encode %q: length %d, expected 8", line, len(ids))
		}
		if ids[0] != table.BeginID() {
			t.Errorf("encode %q: position 0 is %d, expected begin sentinel %d", line, ids[0], table.BeginID())
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	table := Build([]string{"git push origin main"})
	maxLen := 10

	tests := []struct {
		line string
		want string
	}{
		{"git", "git"},
		{"git push", "git push"},
		// Truncation: 1 slot for begin, content capped at maxLen-1.
		{"git push origin main", "git push "},
	}

	for _, tt := range tests {
		ids, err := table.Encode(tt.line, maxLen, true)
		if err != nil {
			t.Fatalf("encode %q: %v", tt.line, err)
		}
		if got := table.Decode(ids); got != tt.want {
			t.Errorf("round trip %q: got %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestEncodeWithoutEnd(t *testing.T) {
	table := Build([]string{"make test"})

	ids, err := table.Encode("make", 20, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 5 {
		t.Errorf("open-ended encode should stop after content, got length %d", len(ids))
	}
	for _, id := range ids {
		if id == table.EndID() {
			t.Error("open-ended encode must not contain the end sentinel")
		}
	}
}

func TestEncodeUnknownChar(t *testing.T) {
	table := Build([]string{"abc"})

	_, err := table.Encode("abz", 10, true)
	if err == nil {
		t.Fatal("expected error for unknown character")
	}
	if !errors.Is(err, ErrUnknownChar) {
		t.Errorf("expected ErrUnknownChar, got %v", err)
	}
}

func TestEncodeLossy(t *testing.T) {
	table := Build([]string{"abc"})

	ids, dropped, err := table.EncodeLossy("aXbYcZ", 10, true)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if dropped != 3 {
		t.Errorf("expected 3 dropped runes, got %d", dropped)
	}
	if got := table.Decode(ids); got != "abc" {
		t.Errorf("expected lossy decode %q, got %q", "abc", got)
	}
}

func TestEncodeLossyBadMaxLen(t *testing.T) {
	table := Build([]string{"abc"})

	if _, _, err := table.EncodeLossy("abc", 0, true); err == nil {
		t.Fatal("expected error for max length 0")
	}
}
