package triplets

import "testing"

const (
	A Node = 1
	B Node = 2
	C Node = 3
	D Node = 4
)

func TestAddFactAndIsTrue(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		s := NewStructure()
		fact := NewTriplet(A, B, C)

		if s.IsTrue(fact) {
			t.Fatal("fact should not be true before it is added")
		}

		s.AddFact(fact)
		if !s.IsTrue(fact) {
			t.Fatal("fact should be true after AddFact")
		}

		s.RemoveFact(fact)
		if s.IsTrue(fact) {
			t.Fatal("fact should not be true after RemoveFact")
		}
	})

	t.Run("duplicate add is a contract violation", func(t *testing.T) {
		s := NewStructure()
		fact := NewTriplet(A, B, C)
		s.AddFact(fact)

		defer func() {
			if recover() == nil {
				t.Fatal("expected a panic on duplicate AddFact")
			}
		}()
		s.AddFact(fact)
	})

	t.Run("remove of absent fact is a contract violation", func(t *testing.T) {
		s := NewStructure()

		defer func() {
			if recover() == nil {
				t.Fatal("expected a panic on RemoveFact of an absent fact")
			}
		}()
		s.RemoveFact(NewTriplet(A, B, C))
	})

	t.Run("zero position is a contract violation", func(t *testing.T) {
		s := NewStructure()

		defer func() {
			if recover() == nil {
				t.Fatal("expected a panic when adding a fact with a zero position")
			}
		}()
		s.AddFact(NewTriplet(A, Hole, C))
	})
}

func TestAllTrue(t *testing.T) {
	s := NewStructure()
	f1 := NewTriplet(A, B, C)
	f2 := NewTriplet(B, C, D)
	s.AddFact(f1)
	s.AddFact(f2)

	if !s.AllTrue([]Triplet{f1, f2}) {
		t.Error("AllTrue should hold when every fact is present")
	}
	if s.AllTrue([]Triplet{f1, NewTriplet(D, D, D)}) {
		t.Error("AllTrue should fail when any fact is absent")
	}
	if !s.AllTrue(nil) {
		t.Error("AllTrue of an empty list should vacuously hold")
	}
}

func TestLookupPartialKeyCompleteness(t *testing.T) {
	s := NewStructure()
	facts := []Triplet{
		NewTriplet(A, B, C),
		NewTriplet(A, B, D),
		NewTriplet(A, C, D),
		NewTriplet(B, B, D),
	}
	for _, f := range facts {
		s.AddFact(f)
	}

	cases := []struct {
		name string
		key  Triplet
		want []Triplet
	}{
		{"all holes", NewTriplet(Hole, Hole, Hole), facts},
		{"pin first", NewTriplet(A, Hole, Hole), []Triplet{facts[0], facts[1], facts[2]}},
		{"pin first and second", NewTriplet(A, B, Hole), []Triplet{facts[0], facts[1]}},
		{"fully ground match", NewTriplet(A, B, C), []Triplet{facts[0]}},
		{"fully ground miss", NewTriplet(C, C, C), nil},
		{"pin second", NewTriplet(Hole, B, Hole), []Triplet{facts[0], facts[1], facts[3]}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := s.Lookup(tc.key)
			if !sameFactSet(got, tc.want) {
				t.Errorf("Lookup(%v) = %v, want %v", tc.key, got, tc.want)
			}
		})
	}
}

func TestLookupSnapshotSurvivesMutation(t *testing.T) {
	s := NewStructure()
	f1 := NewTriplet(A, B, C)
	s.AddFact(f1)

	snapshot := s.Lookup(NewTriplet(A, Hole, Hole))
	s.AddFact(NewTriplet(A, B, D))

	if len(snapshot) != 1 {
		t.Fatalf("snapshot should be unaffected by later mutation, got %v", snapshot)
	}
}

func sameFactSet(got, want []Triplet) bool {
	if len(got) != len(want) {
		return false
	}
	seen := make(map[Triplet]int)
	for _, f := range got {
		seen[f]++
	}
	for _, f := range want {
		if seen[f] == 0 {
			return false
		}
		seen[f]--
	}
	return true
}
