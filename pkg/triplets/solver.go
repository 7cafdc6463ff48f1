package triplets

import "sort"

// Solver performs backtracking search for satisfying assignments to a list
// of Constraints evaluated against a Structure.
//
// # Architecture
//
// The search is organized variable-first rather than constraint-first: the
// solver assigns variable 0, then variable 1, and so on, and at each depth
// computes the candidate set for the current variable by looking up, in the
// Structure, every working constraint that mentions it. A "working
// constraint" starts as a copy of the original constraint and has each
// variable position overwritten with its assigned node as the search
// descends; undoing an assignment restores the corresponding positions.
// This lets Get-Options treat every constraint uniformly regardless of how
// many variables it still contains, at the cost of doing O(constraints)
// substitution work per step -- acceptable because constraint lists are
// small.
//
// A Solver holds only a read-only borrow of its Structure: it calls back
// into Structure.Lookup and Structure.IsTrue and never mutates it. Callers
// must not mutate the Structure while a Solver is live, and must discard the
// Solver (simply stop calling NextAssignment) before mutating it again.
//
// A Solver is single-use: once NextAssignment starts returning empty, it is
// exhausted and all further calls also return empty, with no further
// observable side effects.
type Solver struct {
	structure  *Structure
	nVariables int
	mayEqual   MayEqual

	valid bool

	// constraints holds the original, never-mutated constraints that still
	// reference at least one variable. workingConstraints is the same list
	// with variable positions progressively substituted as the search
	// descends.
	constraints        []Constraint
	workingConstraints []Constraint

	// varToConstraints[v] lists the indices into constraints/
	// workingConstraints of every constraint mentioning variable v.
	varToConstraints [][]int

	assignment []Node
	states     []solverState

	// depth is the current search depth, in [-1, nVariables]. -1 means the
	// search is exhausted; nVariables means a complete assignment is ready
	// to be read off of assignment.
	depth int
}

// solverState is the per-depth candidate set and cursor into it.
type solverState struct {
	options []Node
	cursor  int
}

// NewSolver constructs a Solver over structure with nVariables free
// variables, the given constraints, and the given may-equal declaration.
// nVariables must be > 0. mayEqual must have length nVariables; a nil or
// short entry is treated as the empty set.
//
// Construction partitions constraints into those mentioning at least one
// variable (kept as the working set) and fully ground constraints, each of
// which is checked against structure immediately via IsTrue. If any ground
// constraint fails, the solver is permanently invalid: IsValid returns false
// and NextAssignment always returns nil.
func NewSolver(structure *Structure, nVariables int, constraints []Constraint, mayEqual MayEqual) *Solver {
	if nVariables <= 0 {
		violate("NewSolver", Triplet{}, "nVariables must be > 0, got %d", nVariables)
	}

	s := &Solver{
		structure:        structure,
		nVariables:       nVariables,
		mayEqual:         mayEqual,
		valid:            true,
		varToConstraints: make([][]int, nVariables),
		assignment:       make([]Node, nVariables),
		states:           make([]solverState, nVariables),
		depth:            0,
	}

	for _, c := range constraints {
		anyVariable := false
		for _, pos := range c {
			if IsVariable(pos) {
				v := DecodeVariable(pos)
				s.varToConstraints[v] = append(s.varToConstraints[v], len(s.constraints))
				anyVariable = true
			}
		}
		if anyVariable {
			s.constraints = append(s.constraints, c)
		} else if !structure.IsTrue(c.AsTriplet()) {
			s.valid = false
			break
		}
	}

	if s.valid {
		s.workingConstraints = append([]Constraint(nil), s.constraints...)
		s.getOptions()
	} else {
		s.depth = -1
	}

	return s
}

// IsValid reports whether the solver's ground constraints held at
// construction time, as long as it is checked before the search is
// exhausted: once NextAssignment has returned nil, IsValid also returns
// false. A solver that starts invalid never yields any assignment.
func (s *Solver) IsValid() bool {
	return s.valid
}

// NextAssignment returns the next satisfying assignment as a slice indexed
// by variable, or nil if the search is exhausted (permanently, or because
// there is no more to find). Assignments are produced in a deterministic
// order for a given (structure, constraints, mayEqual) tuple: the
// lexicographic product of the per-depth candidate orders as they stood when
// each depth was first entered.
func (s *Solver) NextAssignment() []Node {
	if !s.valid {
		return nil
	}

	for s.depth >= 0 {
		state := &s.states[s.depth]

		if state.cursor >= len(state.options) {
			s.unassign()
			continue
		}

		candidate := state.options[state.cursor]
		state.cursor++
		s.assign(candidate)

		if s.depth == s.nVariables {
			result := make([]Node, s.nVariables)
			copy(result, s.assignment)
			s.unassign()
			return result
		}

		s.getOptions()
	}

	s.valid = false
	return nil
}

// currentVariable returns the variable index being decided at the current
// depth.
func (s *Solver) currentVariable() int {
	return s.depth
}

// assign substitutes to for the current variable in every working
// constraint that mentions it, records it in the assignment vector, and
// advances the depth.
func (s *Solver) assign(to Node) {
	s.assignment[s.depth] = to
	v := EncodeVariable(s.currentVariable())
	for _, ci := range s.varToConstraints[s.depth] {
		wc := &s.workingConstraints[ci]
		for j := 0; j < 3; j++ {
			if wc[j] == v {
				wc[j] = NodeOrVariable(to)
			}
		}
	}
	s.depth++
}

// unassign undoes the substitutions assign made for the variable at the
// depth being left, and decrements the depth.
func (s *Solver) unassign() {
	s.depth--
	if s.depth < 0 {
		return
	}
	v := EncodeVariable(s.currentVariable())
	for _, ci := range s.varToConstraints[s.depth] {
		original := s.constraints[ci]
		wc := &s.workingConstraints[ci]
		for j := 0; j < 3; j++ {
			if original[j] == v {
				wc[j] = original[j]
			}
		}
	}
}

// getOptions computes the candidate set for the variable at the current
// depth and resets its cursor. See Get-Options in the solver design: for
// each working constraint mentioning the current variable, the variable
// positions are replaced with Hole, Structure.Lookup is called, and the
// matching facts are projected back onto the positions that held the
// variable; the per-constraint contributions are intersected, and finally
// any node value already used by an earlier variable outside this
// variable's may-equal set is removed.
func (s *Solver) getOptions() {
	if s.depth >= s.nVariables || s.depth < 0 {
		return
	}

	v := EncodeVariable(s.currentVariable())
	var options []Node
	initialized := false

	for _, ci := range s.varToConstraints[s.depth] {
		wc := s.workingConstraints[ci]

		var lookupKey Triplet
		var holeIsVar [3]bool
		for j := 0; j < 3; j++ {
			holeIsVar[j] = wc[j] == v
			if IsVariable(wc[j]) {
				lookupKey[j] = Hole
			} else {
				lookupKey[j] = Node(wc[j])
			}
		}

		matches := s.structure.Lookup(lookupKey)
		local := make(map[Node]struct{})
		for _, fact := range matches {
			choice := Node(0)
			consistent := true
			for j := 0; j < 3; j++ {
				if !holeIsVar[j] {
					continue
				}
				if choice == 0 {
					choice = fact[j]
				} else if choice != fact[j] {
					consistent = false
					break
				}
			}
			if consistent && choice > 0 {
				if !initialized || contains(options, choice) {
					local[choice] = struct{}{}
				}
			}
		}

		options = setToSortedSlice(local)
		initialized = true
		if len(options) == 0 {
			break
		}
	}

	if !initialized {
		options = nil
	}

	may := s.mayEqualFor(s.depth)
	filtered := options[:0:0]
	for _, opt := range options {
		excluded := false
		for j := 0; j < s.depth; j++ {
			if s.assignment[j] == opt && !may.Contains(j) {
				excluded = true
				break
			}
		}
		if !excluded {
			filtered = append(filtered, opt)
		}
	}

	s.states[s.depth] = solverState{options: filtered, cursor: 0}
}

func (s *Solver) mayEqualFor(depth int) VariableSet {
	if depth < len(s.mayEqual) {
		return s.mayEqual[depth]
	}
	return nil
}

func contains(options []Node, n Node) bool {
	for _, o := range options {
		if o == n {
			return true
		}
	}
	return false
}

func setToSortedSlice(set map[Node]struct{}) []Node {
	out := make([]Node, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
