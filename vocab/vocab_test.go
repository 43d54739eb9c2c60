package vocab

import "testing"

func TestGet(t *testing.T) {
	latin, err := Get("latin")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(latin) != 94 {
		t.Fatalf("latin vocabulary size = %d, want 94", len(latin))
	}
	seen := map[rune]bool{}
	for _, r := range latin {
		if seen[r] {
			t.Fatalf("duplicate rune %q in latin vocabulary", r)
		}
		seen[r] = true
	}
}

func TestGetUnknown(t *testing.T) {
	if _, err := Get("klingon"); err == nil {
		t.Fatalf("Get() expected error for unknown vocabulary")
	}
}

func TestIndex(t *testing.T) {
	v, err := Get("digits")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	idx := Index(v)
	if idx['0'] != 0 || idx['9'] != 9 {
		t.Fatalf("Index() = %v", idx)
	}
}
