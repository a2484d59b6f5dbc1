package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderDefaults(t *testing.T) {
	err := Newf("boom").Build()

	assert.Equal(t, "boom", err.Error())
	assert.Equal(t, ComponentUnknown, err.Component)
	assert.Equal(t, CategoryGeneric, err.Category)
	assert.False(t, err.Timestamp.IsZero())
}

func TestBuilderWrapsCause(t *testing.T) {
	cause := NewStd("connection refused")
	err := Newf("status request: %w", cause).
		Component("poller").
		Category(CategoryNetwork).
		Context("url", "http://localhost/api/status").
		Build()

	require.ErrorIs(t, err, cause)
	assert.True(t, IsCategory(err, CategoryNetwork))
	assert.False(t, IsCategory(err, CategoryHTTP))
	assert.Equal(t, "http://localhost/api/status", err.GetContext()["url"])
}

func TestIsMatchesCategory(t *testing.T) {
	sentinel := New(NewStd("malformed")).Category(CategoryPayload).Build()
	other := New(NewStd("something else")).Category(CategoryPayload).Build()

	assert.ErrorIs(t, other, sentinel)
	assert.NotErrorIs(t, ValidationError("conf", "bad"), sentinel)
}

func TestCategoryOf(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", NetworkError(NewStd("dial"), "api", "http://x"))

	assert.Equal(t, CategoryNetwork, CategoryOf(wrapped))
	assert.Equal(t, CategoryGeneric, CategoryOf(NewStd("plain")))
}

func TestGetContextReturnsCopy(t *testing.T) {
	err := Newf("x").Context("k", "v").Build()
	ctx := err.GetContext()
	ctx["k"] = "changed"

	assert.Equal(t, "v", err.Context["k"])
	assert.Nil(t, Newf("y").Build().GetContext())
}
