package reqctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type keyA struct{}
type keyB struct{}

func TestWithCopies(t *testing.T) {
	base := New()
	a := base.With(keyA{}, "a")
	b := a.With(keyB{}, "b")

	require.Nil(t, base.Value(keyA{}), "With must not mutate the receiver")
	require.Equal(t, "a", a.Value(keyA{}))
	require.Nil(t, a.Value(keyB{}))
	require.Equal(t, "a", b.Value(keyA{}))
	require.Equal(t, "b", b.Value(keyB{}))
}

func TestNilMapValue(t *testing.T) {
	var m *Map
	require.Nil(t, m.Value(keyA{}))
}

func TestContextRoundTrip(t *testing.T) {
	m := New().With(keyA{}, 1)
	ctx := NewContext(context.Background(), m)
	require.Same(t, m, FromContext(ctx))
	require.Nil(t, FromContext(context.Background()))
}
