package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalSink_PutListDelete(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "backups")

	s, err := NewLocalSink(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, s.Dir())

	require.NoError(t, s.Put(ctx, "1.json", []byte(`{}`)))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o700))

	names, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"1.json"}, names)

	require.NoError(t, s.Delete(ctx, "1.json"))
	require.NoError(t, s.Delete(ctx, "1.json"), "deleting a missing file is not an error")

	names, err = s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)
}
