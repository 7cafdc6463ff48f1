// Package bridge is the solver host bridge: a thin, value-typed adapter
// that exposes triplets.Structure and triplets.Solver to a rule/pattern
// layer, plus the three-pass MustMap/NoMap/TryMap pattern-matching protocol
// that layer is documented to drive the solver with.
//
// The bridge owns no algorithmic content beyond marshalling constraints
// between the "global" variable numbering a compiled rule uses and the
// per-pass, zero-based numbering triplets.Solver expects, and fanning the
// NoMap/TryMap work for independent base solutions out across a bounded
// worker pool.
package bridge

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/95616ARG/sifter/internal/parallel"
	"github.com/95616ARG/sifter/pkg/triplets"
)

// Sentinel nodes reserved by the bridge to annotate pattern subgraphs, for
// callers that build a Pattern via NewPattern rather than constructing
// MatchGroups directly. The core never interprets these values; they are
// ordinary Nodes as far as triplets is concerned. SentinelRule, Insert,
// Remove, and Subtract are not consumed by anything in this package -- they
// are reserved here so that a caller annotating facts with
// /RULE, /INSERT, /REMOVE, /SUBTRACT-style tags (the excluded macro layer's
// own scheme) can share one fixed block of low node IDs with
// MustMap/NoMap/TryMap instead of minting a second, colliding one.
const (
	SentinelRule     triplets.Node = 1
	SentinelMustMap  triplets.Node = 2
	SentinelNoMap    triplets.Node = 3
	SentinelTryMap   triplets.Node = 4
	SentinelInsert   triplets.Node = 5
	SentinelRemove   triplets.Node = 6
	SentinelSubtract triplets.Node = 7
)

// MatchGroup is one constraint group within a Pattern: a list of
// Constraints plus the MayEqual declaration for the variables local to this
// group, and the number of variables in that local numbering that are
// "free" -- not already bound by an enclosing MustMap solution.
//
// Constraint positions may reference two kinds of variable: the bound
// prefix, whose indices are the MustMap pass's own variable indices
// (0..NMustVars-1, shared across a Pattern's MustMap, every NoMap group, and
// TryMap), and this group's own free variables, whose indices continue
// immediately after the bound prefix. NVariables counts only the free
// variables; it is the nVariables a Solver would need once the bound prefix
// has been substituted away.
type MatchGroup struct {
	Constraints []triplets.Constraint
	MayEqual    triplets.MayEqual
	NVariables  int
}

// Pattern is a compiled rule pattern: the MustMap constraints that define a
// base solution, zero or more NoMap groups (a base solution surviving only
// if none of them has any extension), and zero or more TryMap groups (the
// first one with an extension wins; ties are broken by group order, then by
// the deterministic order a single Solver yields assignments in).
type Pattern struct {
	MustMap MatchGroup
	NoMap   []MatchGroup
	TryMap  []MatchGroup
}

// Assignment is one result of Bridge.Match: the MustMap variable assignment
// (Base) plus, if a TryMap group extended it, that group's free-variable
// assignment (Extra). Extra is nil if no TryMap group applied or extended
// successfully.
type Assignment struct {
	Base  []triplets.Node
	Extra []triplets.Node
}

// TaggedConstraint pairs a Constraint with the sentinel declaring which pass
// of a Pattern it belongs to (SentinelMustMap, SentinelNoMap, or
// SentinelTryMap) and, for NoMap/TryMap, which of that pass's groups it
// belongs to -- Group is ignored for SentinelMustMap, which always collects
// into the single MustMap group.
type TaggedConstraint struct {
	Tag        triplets.Node
	Group      int
	Constraint triplets.Constraint
}

// NewPattern is the bridge's convenience constructor: it partitions a flat,
// sentinel-tagged constraint list into a Pattern, instead of requiring the
// caller to build MatchGroups by hand. nVariables and mayEqual apply to the
// MustMap group; NoMap/TryMap groups built this way have no free variables
// of their own (NVariables 0) -- callers whose NoMap/TryMap groups need free
// variables build Pattern and MatchGroup directly instead of going through
// NewPattern.
func NewPattern(tagged []TaggedConstraint, nVariables int, mayEqual triplets.MayEqual) (Pattern, error) {
	var p Pattern
	p.MustMap.NVariables = nVariables
	p.MustMap.MayEqual = mayEqual

	noMapGroups := map[int][]triplets.Constraint{}
	tryMapGroups := map[int][]triplets.Constraint{}

	for i, tc := range tagged {
		switch tc.Tag {
		case SentinelMustMap:
			p.MustMap.Constraints = append(p.MustMap.Constraints, tc.Constraint)
		case SentinelNoMap:
			noMapGroups[tc.Group] = append(noMapGroups[tc.Group], tc.Constraint)
		case SentinelTryMap:
			tryMapGroups[tc.Group] = append(tryMapGroups[tc.Group], tc.Constraint)
		default:
			return Pattern{}, errors.Errorf("bridge: tagged constraint %d has unrecognized pass tag %d", i, tc.Tag)
		}
	}

	for _, idx := range sortedGroupKeys(noMapGroups) {
		p.NoMap = append(p.NoMap, MatchGroup{Constraints: noMapGroups[idx]})
	}
	for _, idx := range sortedGroupKeys(tryMapGroups) {
		p.TryMap = append(p.TryMap, MatchGroup{Constraints: tryMapGroups[idx]})
	}

	return p, nil
}

func sortedGroupKeys(groups map[int][]triplets.Constraint) []int {
	keys := make([]int, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// Bridge binds a triplets.Structure to the worker pool used for the
// concurrent part of Match. A Bridge does not own the Structure: callers
// must not mutate it while any Bridge method is in flight, per the
// single-owner discipline triplets.Structure documents.
type Bridge struct {
	structure *triplets.Structure
	pool      *parallel.WorkerPool
}

// NewBridge returns a Bridge over structure whose NoMap/TryMap fan-out is
// bounded by a worker pool of size workerLimit. workerLimit <= 0 means "use
// GOMAXPROCS", per parallel.NewWorkerPool. Call Close when done with it.
func NewBridge(structure *triplets.Structure, workerLimit int) *Bridge {
	return &Bridge{structure: structure, pool: parallel.NewWorkerPool(workerLimit)}
}

// Close releases the bridge's worker pool. It does not touch the
// structure.
func (b *Bridge) Close() {
	b.pool.Shutdown()
}

// Assignments runs a single Solver to exhaustion and returns every
// assignment it yields, in its deterministic order. It is a direct
// pass-through for callers that don't need the three-pass protocol.
func (b *Bridge) Assignments(nVariables int, constraints []triplets.Constraint, mayEqual triplets.MayEqual) [][]triplets.Node {
	solver := triplets.NewSolver(b.structure, nVariables, constraints, mayEqual)
	var all [][]triplets.Node
	for {
		a := solver.NextAssignment()
		if a == nil {
			return all
		}
		all = append(all, a)
	}
}

// Match runs the MustMap/NoMap/TryMap protocol for pattern against the
// bridge's structure: it solves MustMap for every base solution, discards
// any base solution for which some NoMap group has an extension, and for
// each survivor attempts to extend it with the first TryMap group that has
// one.
//
// The NoMap/TryMap work for distinct base solutions is independent and is
// fanned out across the bridge's worker pool; ctx bounds that fan-out and
// is checked between pool submissions. Match returns an error if
// pattern.MustMap.NVariables is not positive, if a group declaring
// NVariables 0 still has a free variable once the base is bound, if a
// worker panics (most likely on a malformed Pattern tripping a
// *triplets.ContractViolation), or if ctx is cancelled; "no matches" is a
// nil, nil return, not an error.
func (b *Bridge) Match(ctx context.Context, pattern Pattern) ([]Assignment, error) {
	bases, err := b.solveMustMap(pattern.MustMap)
	if err != nil {
		return nil, err
	}
	if len(bases) == 0 {
		return nil, nil
	}

	results := make([]Assignment, len(bases))
	keep := make([]bool, len(bases))

	g, gctx := errgroup.WithContext(ctx)
	for i, base := range bases {
		i, base := i, base
		g.Go(func() error {
			return b.runInPool(gctx, func() error {
				survived, err := b.survivesNoMap(base, pattern.NoMap)
				if err != nil {
					return err
				}
				if !survived {
					return nil
				}
				extra, err := b.tryExtend(base, pattern.TryMap)
				if err != nil {
					return err
				}
				keep[i] = true
				results[i] = Assignment{Base: base, Extra: extra}
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []Assignment
	for i, k := range keep {
		if k {
			out = append(out, results[i])
		}
	}
	return out, nil
}

// solveMustMap solves group to exhaustion, translating a permanently
// invalid solver into a (nil, nil) "no matches" result rather than an
// error, per §7's error taxonomy: an unsatisfiable ground constraint is not
// an error.
func (b *Bridge) solveMustMap(group MatchGroup) ([][]triplets.Node, error) {
	if group.NVariables <= 0 {
		return nil, errors.New("bridge: Pattern.MustMap.NVariables must be > 0")
	}
	solver := triplets.NewSolver(b.structure, group.NVariables, group.Constraints, group.MayEqual)
	if !solver.IsValid() {
		return nil, nil
	}
	var bases [][]triplets.Node
	for {
		a := solver.NextAssignment()
		if a == nil {
			return bases, nil
		}
		bases = append(bases, a)
	}
}

// survivesNoMap reports whether base has no extension in any of groups.
func (b *Bridge) survivesNoMap(base []triplets.Node, groups []MatchGroup) (bool, error) {
	for _, group := range groups {
		extended, err := b.groupHasExtension(base, group)
		if err != nil {
			return false, err
		}
		if extended {
			return false, nil
		}
	}
	return true, nil
}

// tryExtend returns the free-variable assignment of the first group in
// groups that has an extension of base, or nil if none does.
func (b *Bridge) tryExtend(base []triplets.Node, groups []MatchGroup) ([]triplets.Node, error) {
	for _, group := range groups {
		extra, ok, err := b.groupFirstExtension(base, group)
		if err != nil {
			return nil, err
		}
		if ok {
			return extra, nil
		}
	}
	return nil, nil
}

func (b *Bridge) groupHasExtension(base []triplets.Node, group MatchGroup) (bool, error) {
	_, ok, err := b.groupFirstExtension(base, group)
	return ok, err
}

// groupFirstExtension binds group's constraints against base (substituting
// the bound prefix, renumbering the remaining free variables down to
// 0..group.NVariables-1) and returns the first extension's free-variable
// assignment. If group.NVariables is 0 there is nothing left to search:
// the substituted constraints are checked directly against the structure.
func (b *Bridge) groupFirstExtension(base []triplets.Node, group MatchGroup) ([]triplets.Node, bool, error) {
	bound := bindConstraints(group.Constraints, base)

	if group.NVariables == 0 {
		facts := make([]triplets.Triplet, len(bound))
		for i, c := range bound {
			if !c.IsGround() {
				return nil, false, errors.Errorf("bridge: MatchGroup declares NVariables=0 but constraint %d still has a free variable", i)
			}
			facts[i] = c.AsTriplet()
		}
		if b.structure.AllTrue(facts) {
			return nil, true, nil
		}
		return nil, false, nil
	}

	solver := triplets.NewSolver(b.structure, group.NVariables, bound, group.MayEqual)
	if !solver.IsValid() {
		return nil, false, nil
	}
	extra := solver.NextAssignment()
	return extra, extra != nil, nil
}

// bindConstraints substitutes base[i] for every occurrence of the bound
// variable i < len(base), and renumbers every other variable v down to
// v - len(base) so the result is ready for a Solver with nVariables equal
// to the group's own free-variable count.
func bindConstraints(constraints []triplets.Constraint, base []triplets.Node) []triplets.Constraint {
	boundLen := len(base)
	out := make([]triplets.Constraint, len(constraints))
	for i, c := range constraints {
		var nc triplets.Constraint
		for j := 0; j < 3; j++ {
			pos := c[j]
			if !triplets.IsVariable(pos) {
				nc[j] = pos
				continue
			}
			v := triplets.DecodeVariable(pos)
			if v < boundLen {
				nc[j] = triplets.NodeOrVariable(base[v])
			} else {
				nc[j] = triplets.EncodeVariable(v - boundLen)
			}
		}
		out[i] = nc
	}
	return out
}

// runInPool submits task to the bridge's worker pool and waits for it,
// recovering any panic (e.g. a *triplets.ContractViolation from a
// malformed group) into a returned error instead of taking the caller down.
func (b *Bridge) runInPool(ctx context.Context, task func() error) error {
	done := make(chan error, 1)
	submitErr := b.pool.Submit(ctx, func() {
		defer func() {
			if r := recover(); r != nil {
				done <- errors.Errorf("bridge: panic during match: %v", r)
			}
		}()
		done <- task()
	})
	if submitErr != nil {
		return submitErr
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
