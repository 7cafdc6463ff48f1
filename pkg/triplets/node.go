package triplets

// Node is an opaque identity stored in a Structure. Node identity is minted
// and remembered by the caller; this package never interns names and never
// allocates a Node on its own.
//
// Valid nodes are strictly positive. The value 0 is reserved as the "hole"
// marker used in Lookup keys to mean "any value" and must never be stored as
// a fact position. Negative values are Variable tokens used only inside
// constraints passed to a Solver; a Structure never stores one.
type Node int64

// Hole is the sentinel Lookup-key value meaning "match any node at this
// position." It is never a valid fact position.
const Hole Node = 0

// IsValid reports whether n is usable as a fact position, i.e. strictly
// positive.
func (n Node) IsValid() bool {
	return n > 0
}

// Variable is a non-positive integer identifying one of the free variables
// in a Constraint list. Variable index i (0-indexed) is encoded as the
// NodeOrVariable value -i; variable 0 is therefore encoded as 0, which is
// unambiguous only because constraint-space and structure-space are never
// mixed without an explicit substitution step (see Solver).
type Variable int

// NodeOrVariable is the element type of a Constraint: either a ground Node
// (value > 0) or a Variable encoded as a non-positive integer (value <= 0).
// Whether a given value means "hole" or "variable 0" depends entirely on
// which API it was passed to; Lookup keys never contain variables and
// Constraints never contain holes.
type NodeOrVariable = int64

// EncodeVariable returns the NodeOrVariable encoding of variable index i.
func EncodeVariable(i int) NodeOrVariable {
	return NodeOrVariable(-i)
}

// IsVariable reports whether v, interpreted in constraint-space, denotes a
// variable rather than a ground node.
func IsVariable(v NodeOrVariable) bool {
	return v <= 0
}

// DecodeVariable returns the variable index encoded by v. Callers must only
// call this when IsVariable(v) is true.
func DecodeVariable(v NodeOrVariable) int {
	return int(-v)
}
