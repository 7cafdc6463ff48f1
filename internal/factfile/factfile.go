// Package factfile parses the small YAML document format sifter's CLI
// accepts as input: a node-name table, a list of facts written against
// those names, and either a flat query or a mustMap/noMap/tryMap pattern to
// run against the resulting structure.
//
// This is the repository's stand-in for the embedded DSL the engine this
// spec is drawn from normally uses to build structures: enough to drive the
// CLI end to end, nothing that resembles a rule compiler.
package factfile

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/95616ARG/sifter/pkg/bridge"
	"github.com/95616ARG/sifter/pkg/triplets"
)

// Document is the parsed form of a fact file: a populated Structure, the
// name table it was built from, and whichever of Query or Pattern the
// document declared (never both).
type Document struct {
	Structure *triplets.Structure
	Names     map[string]triplets.Node

	Query   *Query
	Pattern *bridge.Pattern
}

// Query is the flat, single-pass form: a direct Bridge.Assignments call.
type Query struct {
	NVariables  int
	Constraints []triplets.Constraint
	MayEqual    triplets.MayEqual
}

// raw mirrors the YAML shape documented for fact files; rawGroup and
// rawTriplet are its nested pieces. Field names match the YAML keys via
// yaml.v3's default lowercasing, except where a tag pins one explicitly.
type raw struct {
	Nodes map[string]int64 `yaml:"nodes"`
	Facts []rawTriplet     `yaml:"facts"`

	Query   *rawGroup  `yaml:"query"`
	MustMap *rawGroup  `yaml:"mustMap"`
	NoMap   []rawGroup `yaml:"noMap"`
	TryMap  []rawGroup `yaml:"tryMap"`
}

type rawGroup struct {
	Variables   int          `yaml:"variables"`
	Constraints []rawTriplet `yaml:"constraints"`
	MayEqual    [][]int      `yaml:"mayEqual"`
}

// rawTriplet decodes either a 3-element fact (plain node names) or a
// 3-element constraint (node names and "?i" variable tokens) depending on
// context; resolution happens in resolveFact/resolveConstraint.
type rawTriplet [3]string

func (t *rawTriplet) UnmarshalYAML(value *yaml.Node) error {
	var elems []string
	if err := value.Decode(&elems); err != nil {
		return err
	}
	if len(elems) != 3 {
		return errors.Errorf("factfile: expected a 3-element list, got %d elements", len(elems))
	}
	*t = rawTriplet{elems[0], elems[1], elems[2]}
	return nil
}

// Load reads and parses the fact file at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "factfile: read %s", path)
	}
	return Parse(data)
}

// Parse decodes a fact file already read into memory.
func Parse(data []byte) (*Document, error) {
	var r raw
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, errors.Wrap(err, "factfile: parse YAML")
	}

	names := make(map[string]triplets.Node, len(r.Nodes))
	for name, id := range r.Nodes {
		if id <= 0 {
			return nil, errors.Errorf("factfile: node %q has non-positive id %d", name, id)
		}
		names[name] = triplets.Node(id)
	}

	structure := triplets.NewStructure()
	for i, f := range r.Facts {
		fact, err := resolveFact(names, f)
		if err != nil {
			return nil, errors.Wrapf(err, "factfile: facts[%d]", i)
		}
		if structure.IsTrue(fact) {
			return nil, errors.Errorf("factfile: facts[%d]: duplicate fact %s", i, fact)
		}
		structure.AddFact(fact)
	}

	doc := &Document{Structure: structure, Names: names}

	switch {
	case r.Query != nil && r.MustMap != nil:
		return nil, errors.New("factfile: a fact file may declare query or mustMap/noMap/tryMap, not both")
	case r.Query != nil:
		q, err := resolveQuery(names, *r.Query)
		if err != nil {
			return nil, errors.Wrap(err, "factfile: query")
		}
		doc.Query = q
	case r.MustMap != nil:
		p, err := resolvePattern(names, r)
		if err != nil {
			return nil, errors.Wrap(err, "factfile: pattern")
		}
		doc.Pattern = p
	}

	return doc, nil
}

func resolveFact(names map[string]triplets.Node, t rawTriplet) (triplets.Triplet, error) {
	var fact triplets.Triplet
	for i, tok := range t {
		node, err := resolveNode(names, tok)
		if err != nil {
			return fact, err
		}
		fact[i] = node
	}
	return fact, nil
}

func resolveNode(names map[string]triplets.Node, tok string) (triplets.Node, error) {
	node, ok := names[tok]
	if !ok {
		return 0, errors.Errorf("factfile: undefined node name %q", tok)
	}
	return node, nil
}

// resolveConstraintPosition resolves a single constraint token: "?i" is a
// variable reference, anything else is looked up in names.
func resolveConstraintPosition(names map[string]triplets.Node, tok string) (triplets.NodeOrVariable, error) {
	if strings.HasPrefix(tok, "?") {
		i, err := strconv.Atoi(tok[1:])
		if err != nil {
			return 0, errors.Wrapf(err, "factfile: malformed variable token %q", tok)
		}
		return triplets.EncodeVariable(i), nil
	}
	node, err := resolveNode(names, tok)
	if err != nil {
		return 0, err
	}
	return triplets.NodeOrVariable(node), nil
}

func resolveConstraint(names map[string]triplets.Node, t rawTriplet) (triplets.Constraint, error) {
	var c triplets.Constraint
	for i, tok := range t {
		pos, err := resolveConstraintPosition(names, tok)
		if err != nil {
			return c, err
		}
		c[i] = pos
	}
	return c, nil
}

func resolveMayEqual(raw [][]int) triplets.MayEqual {
	if raw == nil {
		return nil
	}
	me := make(triplets.MayEqual, len(raw))
	for i, indices := range raw {
		if len(indices) == 0 {
			continue
		}
		me[i] = triplets.NewVariableSet(indices...)
	}
	return me
}

func resolveGroup(names map[string]triplets.Node, g rawGroup) (bridge.MatchGroup, error) {
	constraints := make([]triplets.Constraint, len(g.Constraints))
	for i, rc := range g.Constraints {
		c, err := resolveConstraint(names, rc)
		if err != nil {
			return bridge.MatchGroup{}, fmt.Errorf("constraints[%d]: %w", i, err)
		}
		constraints[i] = c
	}
	return bridge.MatchGroup{
		NVariables:  g.Variables,
		Constraints: constraints,
		MayEqual:    resolveMayEqual(g.MayEqual),
	}, nil
}

func resolveQuery(names map[string]triplets.Node, g rawGroup) (*Query, error) {
	group, err := resolveGroup(names, g)
	if err != nil {
		return nil, err
	}
	return &Query{
		NVariables:  group.NVariables,
		Constraints: group.Constraints,
		MayEqual:    group.MayEqual,
	}, nil
}

func resolvePattern(names map[string]triplets.Node, r raw) (*bridge.Pattern, error) {
	must, err := resolveGroup(names, *r.MustMap)
	if err != nil {
		return nil, errors.Wrap(err, "mustMap")
	}

	noMap := make([]bridge.MatchGroup, len(r.NoMap))
	for i, g := range r.NoMap {
		group, err := resolveGroup(names, g)
		if err != nil {
			return nil, fmt.Errorf("noMap[%d]: %w", i, err)
		}
		noMap[i] = group
	}

	tryMap := make([]bridge.MatchGroup, len(r.TryMap))
	for i, g := range r.TryMap {
		group, err := resolveGroup(names, g)
		if err != nil {
			return nil, fmt.Errorf("tryMap[%d]: %w", i, err)
		}
		tryMap[i] = group
	}

	return &bridge.Pattern{MustMap: must, NoMap: noMap, TryMap: tryMap}, nil
}
