package bank

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDirSkipsBrokenFiles(t *testing.T) {
	dir := t.TempDir()
	good := `{"bank_id":"b1","title":"Good","questions":[
		{"id":"q1","question":"2+2?","options":["3","4","5","6"],"correct_answer":1}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bank_good.json"), []byte(good), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bank_broken.json"), []byte("{"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.json"), []byte(good), 0o644)) // wrong prefix, ignored

	store := NewInMemoryStore()
	n, err := LoadDir(context.Background(), store, dir)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	banks, err := store.ListBanks(context.Background())
	require.NoError(t, err)
	require.Len(t, banks, 1)
	require.Equal(t, "b1", banks[0].ID)
}

func TestLoadDirMissingDir(t *testing.T) {
	n, err := LoadDir(context.Background(), NewInMemoryStore(), "/does/not/exist")
	require.NoError(t, err)
	require.Zero(t, n)
}
