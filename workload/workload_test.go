package workload

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeInputs(t *testing.T, names ...string) string {
	t.Helper()

	dir := t.TempDir()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("class X {}"), 0o644))
	}

	return dir
}

func TestDiscover(t *testing.T) {
	dir := makeInputs(t, "B.java", "A.java", ".hidden", "C.java")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	files, err := Discover(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "A.java"),
		filepath.Join(dir, "B.java"),
		filepath.Join(dir, "C.java"),
	}, files)
}

func TestDiscoverMissingDir(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSampleDeterministic(t *testing.T) {
	files := []string{"a", "b", "c", "d", "e", "f", "g", "h"}

	first := Sample(files, 3, 42)
	second := Sample(files, 3, 42)

	require.Len(t, first, 3)
	assert.Equal(t, first, second)

	pos := make(map[string]int, len(files))
	for i, f := range files {
		pos[f] = i
	}

	for i := 1; i < len(first); i++ {
		assert.Less(t, pos[first[i-1]], pos[first[i]], "sample must keep input order")
	}
}

func TestSampleKeepsAll(t *testing.T) {
	files := []string{"a", "b"}

	assert.Equal(t, files, Sample(files, 0, 1))
	assert.Equal(t, files, Sample(files, -1, 1))
	assert.Equal(t, files, Sample(files, 5, 1))
}

func TestSelect(t *testing.T) {
	dir := makeInputs(t, "A.java", "B.java", "C.java")

	files, err := Select(Config{Dir: dir, Sample: 2, Seed: 7})
	require.NoError(t, err)
	assert.Len(t, files, 2)

	_, err = Select(Config{Dir: t.TempDir()})
	assert.Error(t, err)
}
