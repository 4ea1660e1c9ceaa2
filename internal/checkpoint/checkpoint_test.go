package checkpoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kerrors "kitacli/internal/errors"
)

func TestLoadMissingFileIsEmptySet(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "processed_files_test.json"))
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Contains("NB_KIGA_001.xlsx"))
}

func TestAddPersistsImmediately(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "processed_files_test.json")
	s, err := Load(path)
	require.NoError(t, err)

	require.NoError(t, s.Add("NB_KIGA_002.xlsx"))
	require.NoError(t, s.Add("NB_KIGA_001.xlsx"))
	assert.True(t, s.Contains("NB_KIGA_001.xlsx"))
	assert.Equal(t, 2, s.Len())

	// A fresh load sees what the first set persisted.
	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.Len())
	assert.True(t, reloaded.Contains("NB_KIGA_002.xlsx"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `["NB_KIGA_001.xlsx","NB_KIGA_002.xlsx"]`, string(data))
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed_files_test.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Equal(t, kerrors.KindIO, kerrors.KindOf(err))
}

func TestClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed_files_test.json")
	s, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, s.Add("NB_KIGA_001.xlsx"))

	require.NoError(t, s.Clear())
	assert.Equal(t, 0, s.Len())
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))

	// Clearing an already-missing file is not an error.
	require.NoError(t, s.Clear())
}
