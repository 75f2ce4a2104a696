package messages

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestEmbeddedCatalog(t *testing.T) {
	t.Parallel()

	b, err := Load()
	require.NoError(t, err)
	require.Equal(t, []string{"en", "hi"}, b.Languages())

	require.Equal(t, "Your cart is empty", b.T("en", "cart.empty"))
	require.Equal(t, "आपका कार्ट खाली है", b.T("hi", "cart.empty"))
	require.Equal(t, "Failed to load cart", b.T("hi", "cart.load_failed"), "missing keys fall back to English")
	require.Equal(t, "Trail Runner added to cart", b.T("en", "cart.added", "Trail Runner"))
	require.Equal(t, "no.such.key", b.T("en", "no.such.key"))
	require.True(t, b.Has("checkout.select_address"))
}

func TestResolve(t *testing.T) {
	t.Parallel()

	b := MustLoad()
	require.Equal(t, "hi", b.Resolve("hi-IN,hi;q=0.9,en;q=0.8"))
	require.Equal(t, "en", b.Resolve("en-GB"))
	require.Equal(t, "en", b.Resolve("fr-FR"))
	require.Equal(t, "en", b.Resolve(""))
}

func TestLoadFSRequiresFallback(t *testing.T) {
	t.Parallel()

	_, err := LoadFS(fstest.MapFS{"l/hi.yaml": {Data: []byte("a: b\n")}}, "l")
	require.Error(t, err)

	_, err = LoadFS(fstest.MapFS{"l/en.yaml": {Data: []byte("a: [unclosed\n")}}, "l")
	require.Error(t, err)

	b, err := LoadFS(fstest.MapFS{"l/en.yaml": {Data: []byte("a:\n  b: c\n  n: 3\n")}}, "l")
	require.NoError(t, err)
	require.Equal(t, "c", b.T("en", "a.b"))
	require.Equal(t, "3", b.T("en", "a.n"))
}
