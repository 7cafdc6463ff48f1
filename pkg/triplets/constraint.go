package triplets

// Constraint is a 3-ary template matched against a Structure: each position
// is either a ground Node (value > 0) or a Variable encoded as a
// non-positive NodeOrVariable per EncodeVariable. Unlike a Triplet, a
// Constraint may legitimately contain non-positive values, so the two types
// are kept distinct even though both are 3-tuples of integers.
type Constraint [3]NodeOrVariable

// NewConstraint builds a Constraint from three already-encoded positions.
func NewConstraint(a, b, c NodeOrVariable) Constraint {
	return Constraint{a, b, c}
}

// IsGround reports whether every position of c is a ground node, i.e. c has
// no variable left to resolve.
func (c Constraint) IsGround() bool {
	return c[0] > 0 && c[1] > 0 && c[2] > 0
}

// AsTriplet reinterprets a fully ground constraint as a structure Triplet.
// Callers must check IsGround first.
func (c Constraint) AsTriplet() Triplet {
	return Triplet{Node(c[0]), Node(c[1]), Node(c[2])}
}

// VariableSet declares, for one variable, the set of other variable indices
// it is permitted to share a node value with. The Solver only ever consults
// entry i for indices j < i (see MayEqual), so populating higher indices is
// harmless but unread.
type VariableSet map[int]struct{}

// NewVariableSet builds a VariableSet containing exactly the given indices.
func NewVariableSet(indices ...int) VariableSet {
	s := make(VariableSet, len(indices))
	for _, i := range indices {
		s[i] = struct{}{}
	}
	return s
}

// Contains reports whether i is a member of s. A nil VariableSet contains
// nothing.
func (s VariableSet) Contains(i int) bool {
	_, ok := s[i]
	return ok
}

// MayEqual is the per-variable equivalence declaration: MayEqual[i] is the
// set of variable indices j that variable i may be assigned the same node
// value as. The Solver reads only MayEqual[i] for j < i: any pair j < i
// with j not in MayEqual[i] must receive distinct node values, whatever
// MayEqual[j] says.
type MayEqual []VariableSet
