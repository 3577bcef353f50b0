package shader

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompiler struct {
	next     uint32
	compiles int
	links    int
	deleted  []uint32
	fail     map[string]bool
}

func (f *fakeCompiler) CompileShader(stage Stage, name, source string) (uint32, error) {
	f.compiles++
	if f.fail[name] {
		return 0, errors.New("syntax error")
	}
	f.next++
	return f.next, nil
}

func (f *fakeCompiler) LinkProgram(name string, vert, frag uint32) (uint32, error) {
	f.links++
	f.next++
	return f.next, nil
}

func (f *fakeCompiler) DeleteShader(id uint32) {
	f.deleted = append(f.deleted, id)
}

func TestDeclare(t *testing.T) {
	tbl := NewTable()

	idx, err := tbl.DeclareShader(StageFragment, "void main(){}", "", "demo-frag", "")
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	idx, err = tbl.DeclareShader(StageProgram, "", "builtin-vert", "demo-frag", "demo-prog")
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.Equal(t, 2, tbl.Len())

	require.NoError(t, tbl.DeclareUniform(1, UniformInt, "tex0", 0))
	require.NoError(t, tbl.DeclareUniform(1, UniformFloat, "i", 0))

	u, ok := tbl.Get(1).Uniform("i")
	require.True(t, ok)
	assert.Equal(t, UniformFloat, u.Kind)
	_, ok = tbl.Get(1).Uniform("nope")
	assert.False(t, ok)

	assert.ErrorIs(t, tbl.DeclareUniform(5, UniformInt, "x", 0), ErrIndex)
}

func TestDeclareInvalid(t *testing.T) {
	tbl := NewTable()
	_, err := tbl.DeclareShader(StageProgram, "", "", "frag", "prog")
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = tbl.DeclareShader(StageVertex, "", "", "", "")
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Equal(t, 0, tbl.Len())
}

func TestCapacity(t *testing.T) {
	tbl := NewTable()
	for i := 0; i < MaxDescriptors; i++ {
		_, err := tbl.DeclareShader(StageFragment, "", "", "f", "")
		require.NoError(t, err)
	}
	_, err := tbl.DeclareShader(StageFragment, "", "", "f", "")
	assert.ErrorIs(t, err, ErrCapacity)

	for i := 0; i < MaxUniforms; i++ {
		require.NoError(t, tbl.DeclareUniform(0, UniformFloat, "u", 0))
	}
	assert.ErrorIs(t, tbl.DeclareUniform(0, UniformFloat, "u", 0), ErrCapacity)
}

func TestCacheSharesNames(t *testing.T) {
	fc := &fakeCompiler{}
	c := NewCache(fc)
	require.NoError(t, c.Preload(StageVertex, "builtin-vert", ""))

	frag := &Descriptor{Stage: StageFragment, FragName: "demo-frag", Source: "..."}
	prog := &Descriptor{Stage: StageProgram, VertName: "builtin-vert", FragName: "demo-frag", ProgramName: "demo-prog"}

	// two instances declaring the same names
	id1, err := c.Acquire(frag)
	require.NoError(t, err)
	p1, err := c.Acquire(prog)
	require.NoError(t, err)
	id2, err := c.Acquire(frag)
	require.NoError(t, err)
	p2, err := c.Acquire(prog)
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.Equal(t, p1, p2)
	assert.Equal(t, 2, fc.compiles, "preload + one fragment compile")
	assert.Equal(t, 1, fc.links)
	assert.Equal(t, 2, c.Refs("demo-prog"))

	c.Release("demo-prog")
	assert.Empty(t, fc.deleted)
	c.Release("demo-prog")
	assert.Equal(t, []uint32{p1}, fc.deleted)
	assert.Equal(t, 0, c.Refs("demo-prog"))

	c.Release("builtin-vert")
	assert.Equal(t, 2, c.Len(), "pinned shaders are kept")
}

func TestCacheFailures(t *testing.T) {
	fc := &fakeCompiler{fail: map[string]bool{"bad-frag": true}}
	c := NewCache(fc)

	_, err := c.Acquire(&Descriptor{Stage: StageFragment, FragName: "bad-frag"})
	require.Error(t, err)

	_, err = c.Acquire(&Descriptor{Stage: StageFragment, FragName: "bad-frag"})
	require.Error(t, err, "failures are cached per name")
	assert.Equal(t, 1, fc.compiles)

	_, err = c.Acquire(&Descriptor{Stage: StageProgram, VertName: "missing", FragName: "bad-frag", ProgramName: "p"})
	assert.ErrorIs(t, err, ErrUnresolved)
	assert.Equal(t, 0, fc.links)
}

func TestPreloadBuiltins(t *testing.T) {
	fc := &fakeCompiler{}
	c := NewCache(fc)
	require.NoError(t, c.PreloadBuiltins())

	frag := &Descriptor{Stage: StageFragment, FragName: "demo-frag", Source: "..."}
	prog := &Descriptor{Stage: StageProgram, VertName: BuiltinVertex, FragName: "demo-frag", ProgramName: "demo-prog"}
	_, err := c.Acquire(frag)
	require.NoError(t, err)
	_, err = c.Acquire(prog)
	require.NoError(t, err)
	assert.Equal(t, 1, fc.links)
}
