package buffer

import "testing"

func TestRingEvictsOldest(t *testing.T) {
	ring := NewRing[int](3)
	for i := 1; i <= 5; i++ {
		ring.Add(i)
	}

	got := ring.List()
	want := []int{3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entry %d: expected %d, got %d", i, want[i], got[i])
		}
	}
}

func TestRingLastReturnsNewest(t *testing.T) {
	ring := NewRing[string](4)
	ring.Add("a")
	ring.Add("b")
	ring.Add("c")

	got := ring.Last(2)
	if len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Fatalf("expected [b c], got %v", got)
	}
	if all := ring.Last(10); len(all) != 3 {
		t.Fatalf("expected all 3 entries, got %v", all)
	}
}

func TestRingClear(t *testing.T) {
	ring := NewRing[int](2)
	ring.Add(1)
	ring.Add(2)
	ring.Clear()

	if ring.Len() != 0 {
		t.Fatalf("expected empty ring, got %d", ring.Len())
	}
	if ring.List() != nil {
		t.Fatalf("expected nil list after clear")
	}
	ring.Add(7)
	if got := ring.List(); len(got) != 1 || got[0] != 7 {
		t.Fatalf("expected [7], got %v", got)
	}
}

func TestRingZeroSizeKeepsOne(t *testing.T) {
	ring := NewRing[int](0)
	ring.Add(1)
	ring.Add(2)
	if ring.Cap() != 1 {
		t.Fatalf("expected capacity 1, got %d", ring.Cap())
	}
	if got := ring.List(); len(got) != 1 || got[0] != 2 {
		t.Fatalf("expected [2], got %v", got)
	}
}
