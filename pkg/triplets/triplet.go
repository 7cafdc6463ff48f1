package triplets

import "fmt"

// Triplet is an ordered 3-tuple of Nodes. Order is significant: (a, b, c)
// and (b, a, c) are unrelated facts. A Triplet used as a fact must have no
// zero ("hole") position; a Triplet used as a Lookup key may have any subset
// of its positions set to Hole.
type Triplet [3]Node

// NewTriplet constructs a Triplet from three node values.
func NewTriplet(a, b, c Node) Triplet {
	return Triplet{a, b, c}
}

// IsGround reports whether every position of t is a valid, non-hole node.
func (t Triplet) IsGround() bool {
	return t[0].IsValid() && t[1].IsValid() && t[2].IsValid()
}

// mask returns a copy of t with every position not in keep set to Hole. keep
// is a 3-bit subset of {0, 1, 2}, bit j set meaning "keep position j".
func (t Triplet) mask(keep uint8) Triplet {
	var masked Triplet
	for j := 0; j < 3; j++ {
		if (keep>>j)&1 == 1 {
			masked[j] = t[j]
		}
	}
	return masked
}

func (t Triplet) String() string {
	return fmt.Sprintf("(%d, %d, %d)", t[0], t[1], t[2])
}
