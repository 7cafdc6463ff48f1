package factfile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/95616ARG/sifter/pkg/bridge"
)

const flatQuery = `
nodes:
  alice: 1
  bob: 2
  carol: 3
  likes: 4
facts:
  - [alice, likes, bob]
  - [carol, likes, bob]
query:
  variables: 1
  constraints:
    - ["?0", likes, bob]
  mayEqual:
    - []
`

func TestParseFlatQuery(t *testing.T) {
	doc, err := Parse([]byte(flatQuery))
	require.NoError(t, err)
	require.NotNil(t, doc.Query)
	assert.Nil(t, doc.Pattern)

	b := bridge.NewBridge(doc.Structure, 0)
	defer b.Close()

	assignments := b.Assignments(doc.Query.NVariables, doc.Query.Constraints, doc.Query.MayEqual)
	assert.Len(t, assignments, 2)
}

const patternDoc = `
nodes:
  alice: 1
  bob: 2
  carol: 3
  likes: 4
  hates: 5
facts:
  - [alice, likes, bob]
  - [alice, hates, bob]
  - [carol, likes, bob]
mustMap:
  variables: 1
  constraints:
    - ["?0", likes, bob]
noMap:
  - variables: 0
    constraints:
      - ["?0", hates, bob]
`

func TestParsePattern(t *testing.T) {
	doc, err := Parse([]byte(patternDoc))
	require.NoError(t, err)
	require.NotNil(t, doc.Pattern)
	assert.Nil(t, doc.Query)

	b := bridge.NewBridge(doc.Structure, 0)
	defer b.Close()

	got, err := b.Match(context.Background(), *doc.Pattern)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, doc.Names["carol"], got[0].Base[0])
}

func TestParseRejectsBothQueryAndPattern(t *testing.T) {
	_, err := Parse([]byte(flatQuery + "\nmustMap:\n  variables: 1\n  constraints: []\n"))
	assert.Error(t, err)
}

func TestParseRejectsUndefinedNode(t *testing.T) {
	_, err := Parse([]byte(`
nodes:
  alice: 1
facts:
  - [alice, likes, bob]
`))
	assert.Error(t, err)
}

func TestParseRejectsNonPositiveNodeID(t *testing.T) {
	_, err := Parse([]byte(`
nodes:
  alice: 0
facts: []
`))
	assert.Error(t, err)
}
