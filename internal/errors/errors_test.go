package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderDefaultsCategoryGeneric(t *testing.T) {
	err := New(NewStd("boom")).Build()
	assert.Equal(t, string(CategoryGeneric), err.GetCategory())
	assert.Equal(t, "boom", err.Error())
}

func TestBuilderExplicitComponentAndCategory(t *testing.T) {
	err := New(NewStd("api down")).
		Component("transcribeapi").
		Category(CategoryAPIFatal).
		Context("status", 500).
		Build()

	assert.Equal(t, "transcribeapi", err.GetComponent())
	assert.Equal(t, string(CategoryAPIFatal), err.GetCategory())
	assert.Equal(t, 500, err.GetContext()["status"])
}

func TestBuilderAutoDetectsSomeComponent(t *testing.T) {
	err := New(NewStd("disk full")).Category(CategoryIO).Build()
	assert.NotEmpty(t, err.GetComponent())
}

func TestContextIsCopiedNotShared(t *testing.T) {
	err := New(NewStd("x")).Context("k", 1).Build()
	ctx := err.GetContext()
	ctx["k"] = 2
	assert.Equal(t, 1, err.GetContext()["k"])
}

func TestIsCategory(t *testing.T) {
	err := New(NewStd("retry me")).Category(CategoryAPITransient).Build()
	assert.True(t, IsCategory(err, CategoryAPITransient))
	assert.False(t, IsCategory(err, CategoryAPIFatal))
}

func TestUnwrapAndIs(t *testing.T) {
	base := NewStd("base")
	wrapped := New(base).Build()
	require.ErrorIs(t, wrapped, base)
}

func TestJoin(t *testing.T) {
	a := NewStd("a")
	b := NewStd("b")
	joined := Join(a, b)
	require.Error(t, joined)
	assert.ErrorIs(t, joined, a)
	assert.ErrorIs(t, joined, b)
}
