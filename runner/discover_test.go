package runner

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docPaths(docs []Document) []string {
	var out []string
	for _, d := range docs {
		out = append(out, d.Path)
	}
	return out
}

func TestDiscoverOrder(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, p := range []string{"/d/z.ttl", "/d/a.ttl", "/d/m/b.ttl", "/d/m/a.ttl", "/e/x.ttl", "/single.nt"} {
		require.NoError(t, afero.WriteFile(fs, p, []byte(""), 0644))
	}

	docs := Discover(fs, []string{"/single.nt", "/e", "/d"}, nil, nil)

	assert.Equal(t, []string{"/single.nt", "/e/x.ttl", "/d/a.ttl", "/d/m/a.ttl", "/d/m/b.ttl", "/d/z.ttl"}, docPaths(docs))
	assert.False(t, docs[0].Discovered)
	assert.True(t, docs[1].Discovered)
}

func TestDiscoverExcludes(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, p := range []string{"/d/keep.ttl", "/d/drafts/wip.ttl", "/d/deep/drafts/old.ttl", "/d/skip.ttl"} {
		require.NoError(t, afero.WriteFile(fs, p, []byte(""), 0644))
	}

	docs := Discover(fs, []string{"/d", "/d/skip.ttl"}, []string{"**/drafts/**", "skip.ttl"}, nil)

	// explicitly named files are never excluded
	assert.Equal(t, []string{"/d/keep.ttl", "/d/skip.ttl"}, docPaths(docs))
}

func TestDiscoverSkipsMissingPath(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/a.ttl", []byte(""), 0644))

	docs := Discover(fs, []string{"/missing", "/a.ttl"}, nil, nil)

	assert.Equal(t, []string{"/a.ttl"}, docPaths(docs))
	assert.NoError(t, docs[0].Err)
}

func TestValidateExcludes(t *testing.T) {
	assert.NoError(t, ValidateExcludes([]string{"**/*.ttl", "drafts/*"}))
	assert.Error(t, ValidateExcludes([]string{"{a,b"}))
}
