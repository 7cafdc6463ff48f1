package triplets

// Structure is the indexed fact store: a multiset of ground Triplets with a
// uniqueness invariant enforced by AddFact (adding a fact already present is
// a contract violation, not a no-op).
//
// Internally it keeps a single map from "masked key" to the list of facts
// agreeing with that key, and inserts every fact under all eight masked
// projections of itself (one per subset of {0, 1, 2}). Because a ground fact
// never has a zero position, keys produced by different subsets never
// collide (their hole positions differ), so one map serves every
// combination of pinned/hole positions and any Lookup, however partial,
// costs exactly one hash probe.
//
// A Structure is not safe for concurrent use: callers must not mutate it
// while any Solver holds a borrow of it (see Solver).
type Structure struct {
	facts map[Triplet][]Triplet
}

// the 8 subsets of {0, 1, 2}, as bitmasks: bit j set means "position j is
// pinned in this projection, the others are holes".
var allMasks = [8]uint8{0, 1, 2, 3, 4, 5, 6, 7}

// NewStructure returns an empty Structure.
func NewStructure() *Structure {
	return &Structure{facts: make(map[Triplet][]Triplet)}
}

// AddFact adds fact to the structure. fact must have no zero position and
// must not already be present; either violation panics with a
// *ContractViolation.
func (s *Structure) AddFact(fact Triplet) {
	if !fact.IsGround() {
		violate("AddFact", fact, "fact has a zero or negative position")
	}
	if s.IsTrue(fact) {
		violate("AddFact", fact, "fact is already present")
	}
	for _, mask := range allMasks {
		key := fact.mask(mask)
		s.facts[key] = append(s.facts[key], fact)
	}
}

// RemoveFact removes fact from the structure. fact must currently be
// present; otherwise this panics with a *ContractViolation.
func (s *Structure) RemoveFact(fact Triplet) {
	if !s.IsTrue(fact) {
		violate("RemoveFact", fact, "fact is not present")
	}
	for _, mask := range allMasks {
		key := fact.mask(mask)
		bucket := s.facts[key]
		for i, f := range bucket {
			if f == fact {
				bucket[i] = bucket[len(bucket)-1]
				bucket = bucket[:len(bucket)-1]
				break
			}
		}
		if len(bucket) == 0 {
			delete(s.facts, key)
		} else {
			s.facts[key] = bucket
		}
	}
}

// IsTrue reports whether fact is currently present. fact must be fully
// ground; a hole position always yields false rather than panicking, since
// IsTrue is also used internally on already-ground working constraints.
func (s *Structure) IsTrue(fact Triplet) bool {
	if !fact.IsGround() {
		return false
	}
	bucket, ok := s.facts[fact]
	return ok && len(bucket) > 0
}

// AllTrue reports whether every fact in facts is currently true.
func (s *Structure) AllTrue(facts []Triplet) bool {
	for _, f := range facts {
		if !s.IsTrue(f) {
			return false
		}
	}
	return true
}

// Lookup returns every stored fact agreeing with key at each non-zero (i.e.
// non-Hole) position. A key of all holes returns every fact in the
// structure. The returned slice is an owned snapshot: callers may freely
// retain, mutate their own copy of, or iterate it even as the structure is
// later mutated.
func (s *Structure) Lookup(key Triplet) []Triplet {
	bucket := s.facts[key]
	if len(bucket) == 0 {
		return nil
	}
	out := make([]Triplet, len(bucket))
	copy(out, bucket)
	return out
}
