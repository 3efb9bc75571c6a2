package planregistry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guihaojin/alluxio/internal/workerset"
)

func TestResolveExactMatch(t *testing.T) {
	r := New()
	r.Register("echo", EchoDefinition{})

	def, err := r.Resolve("echo")
	require.NoError(t, err)
	assert.IsType(t, EchoDefinition{}, def)
}

func TestResolveUnknownPlan(t *testing.T) {
	r := New()
	_, err := r.Resolve("nope")
	assert.Error(t, err)
}

func TestResolveGlobPattern(t *testing.T) {
	r := New()
	r.Register("scrub-*", NoopDefinition{})

	def, err := r.Resolve("scrub-ufs1")
	require.NoError(t, err)
	assert.IsType(t, NoopDefinition{}, def)

	_, err = r.Resolve("scrubber")
	assert.Error(t, err)
}

func TestExactBeatsGlob(t *testing.T) {
	r := New()
	r.Register("scrub-*", NoopDefinition{})
	r.Register("scrub-special", EchoDefinition{})

	def, err := r.Resolve("scrub-special")
	require.NoError(t, err)
	assert.IsType(t, EchoDefinition{}, def)
}

func TestNewWithBuiltins(t *testing.T) {
	r := NewWithBuiltins()

	_, err := r.Resolve("echo")
	assert.NoError(t, err)
	_, err = r.Resolve("noop")
	assert.NoError(t, err)
}

func TestEchoDefinitionExpandAndJoin(t *testing.T) {
	def := EchoDefinition{}
	workers := []*workerset.Worker{{ID: 1}, {ID: 2}}

	tasks, err := def.Expand([]byte("payload"), workers)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, int64(1), tasks[0].WorkerID)
	assert.Equal(t, int64(2), tasks[1].WorkerID)

	joined, err := def.Join([]TaskResult{{Result: []byte("a")}, {Result: []byte("b")}})
	require.NoError(t, err)
	assert.Equal(t, "a\nb", string(joined))

	assert.False(t, def.CompleteWhenEmpty())
}

func TestNoopDefinitionExpandsEmpty(t *testing.T) {
	def := NoopDefinition{}
	tasks, err := def.Expand(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, tasks)
	assert.True(t, def.CompleteWhenEmpty())
}
