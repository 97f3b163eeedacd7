package quiz

import "testing"

func TestDefaultBankIsWellFormed(t *testing.T) {
	b := DefaultBank()
	if b.Len() != 7 {
		t.Fatalf("Len() = %d, want 7", b.Len())
	}
	seen := map[int]bool{}
	for i, q := range b.Questions() {
		if seen[q.ID] {
			t.Errorf("duplicate id %d", q.ID)
		}
		seen[q.ID] = true
		if len(q.Keywords) == 0 {
			t.Errorf("question %d has no keywords", q.ID)
		}
		if got := b.At(i).ID; got != q.ID {
			t.Errorf("At(%d).ID = %d, want %d", i, got, q.ID)
		}
	}
}

func TestNewBankRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		qs   []Question
	}{
		{"empty", nil},
		{"no keywords", []Question{{ID: 1}}},
		{"blank keyword", []Question{{ID: 1, Keywords: []string{"ok", "  "}}}},
		{"duplicate id", []Question{{ID: 1, Keywords: []string{"a"}}, {ID: 1, Keywords: []string{"b"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewBank(tt.qs); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestBankReturnsCopies(t *testing.T) {
	b := MustNewBank([]Question{{ID: 9, Keywords: []string{"Alpha"}}})
	q, _ := b.Get(9)
	q.Keywords[0] = "mutated"

	again, _ := b.Get(9)
	if again.Keywords[0] != "alpha" {
		t.Fatalf("bank was mutated through a returned question: %q", again.Keywords[0])
	}
}

func TestPublicViewHidesKeywords(t *testing.T) {
	pub := DefaultBank().Public()
	if pub[0].Number != 1 || pub[0].Scenario != "General Roster Inquiry" {
		t.Fatalf("unexpected first public question: %+v", pub[0])
	}
	if pub[6].Number != 7 {
		t.Fatalf("last number = %d, want 7", pub[6].Number)
	}
}
