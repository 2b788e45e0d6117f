package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/chazu/bindlist/manifest"
	"github.com/chazu/bindlist/opencvjs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(t *testing.T) *manifest.Whitelist {
	t.Helper()
	b := manifest.NewBuilder()
	require.NoError(t, b.Register(manifest.Module{Name: "core", Entries: []manifest.Entry{
		{Class: "", Methods: []string{"add", "subtract"}},
		{Class: "Algorithm", Methods: []string{}},
	}}))
	require.NoError(t, b.Register(manifest.Module{Name: "imgproc", Entries: []manifest.Entry{
		{Class: "CLAHE", Methods: []string{}},
	}}))
	require.NoError(t, b.Register(manifest.Module{Name: "contrib", Entries: []manifest.Entry{
		{Class: "CLAHE", Methods: []string{"apply"}},
	}}))
	require.NoError(t, b.SetNamespacePrefixOverride("dnn", ""))
	return b.Build()
}

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	wl := sample(t)

	require.NoError(t, s.Save(ctx, wl))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, wl.Modules(), got.Modules())
	assert.Equal(t, wl.Overrides(), got.Overrides())

	want, err := manifest.Digest(wl)
	require.NoError(t, err)
	digest, err := s.Digest(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, digest)
}

func TestQueries(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	require.NoError(t, s.Save(ctx, sample(t)))

	tests := []struct {
		class, method string
		want          bool
	}{
		{"", "add", true},
		{"", "apply", false},
		{"CLAHE", "apply", true},
		{"Algorithm", "add", false},
	}
	for _, tc := range tests {
		got, err := s.IsWhitelisted(ctx, tc.class, tc.method)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "IsWhitelisted(%q, %q)", tc.class, tc.method)
	}

	ok, err := s.IsClassWhitelisted(ctx, "Algorithm")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.IsClassWhitelisted(ctx, "core")
	require.NoError(t, err)
	assert.False(t, ok)

	mods, err := s.ModulesFor(ctx, "CLAHE")
	require.NoError(t, err)
	assert.Equal(t, []string{"imgproc", "contrib"}, mods)
}

func TestLoadEmpty(t *testing.T) {
	s := openMemory(t)
	_, err := s.Load(context.Background())
	assert.ErrorIs(t, err, ErrEmpty)

	digest, err := s.Digest(context.Background())
	require.NoError(t, err)
	assert.Empty(t, digest)
}

func TestSaveReplaces(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	require.NoError(t, s.Save(ctx, sample(t)))

	small, err := manifest.New(manifest.Module{Name: "only", Entries: []manifest.Entry{{Class: "X", Methods: []string{"y"}}}})
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, small))

	ok, err := s.IsWhitelisted(ctx, "", "add")
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got.Modules(), 1)
	assert.Empty(t, got.Overrides())
}

func TestOpenCVIndexOnDisk(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index", "bindlist.db")

	wl, err := opencvjs.Load()
	require.NoError(t, err)

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, wl))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, wl.Len(), got.Len())
	assert.Equal(t, wl.Classes(), got.Classes())

	ok, err := s.IsWhitelisted(ctx, "Tracker", "getRapid")
	require.NoError(t, err)
	assert.True(t, ok)
}
