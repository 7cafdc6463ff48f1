// Package triplets implements the indexed fact store and backtracking
// constraint solver that make up the core of the analogy engine.
//
// A Structure is a mutable multiset of 3-ary facts ("triplets") over opaque
// positive-integer Nodes. It maintains eight indices, one per subset of the
// three tuple positions, so that any partial-key lookup (some positions
// pinned, the rest left as the 0 "hole") costs a single hash probe.
//
// A Solver enumerates, one at a time, the satisfying assignments to a small
// list of 3-ary constraint templates evaluated against a Structure. Each
// constraint position is either a ground Node or a Variable; callers declare
// which variables are permitted to share a value via a may-equal relation.
// Solvers are single-use, hold only a read-only borrow of their Structure,
// and must be discarded before that Structure is mutated again.
//
// Everything above this package -- the embedded DSL, the rule compiler, the
// tactic/REPL layer -- is built on top of these two primitives and lives
// outside this module. This package has no knowledge of any of it; it deals
// only in Nodes, Triplets, Constraints and Assignments.
package triplets
