package repository_test

import (
	"github.com/brianvoe/gofakeit/v7"
	"github.com/nikolayk812/cartkeeper/internal/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

// testSnapshotStorage checks the behaviour every SnapshotStorage must share.
func testSnapshotStorage(t *testing.T, storage port.SnapshotStorage) {
	t.Helper()

	t.Run("get never set key: not found", func(t *testing.T) {
		value, found, err := storage.Get(t.Context(), "@cart:"+gofakeit.UUID())
		require.NoError(t, err)
		assert.False(t, found)
		assert.Empty(t, value)
	})

	t.Run("set then get: ok", func(t *testing.T) {
		key := "@cart:" + gofakeit.UUID()
		value := `[{"id":"` + gofakeit.UUID() + `","quantity":1}]`

		require.NoError(t, storage.Set(t.Context(), key, value))

		got, found, err := storage.Get(t.Context(), key)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, value, got)
	})

	t.Run("set twice: last write wins", func(t *testing.T) {
		key := "@cart:" + gofakeit.UUID()

		require.NoError(t, storage.Set(t.Context(), key, `[{"id":"a","quantity":1}]`))
		require.NoError(t, storage.Set(t.Context(), key, `[]`))

		got, found, err := storage.Get(t.Context(), key)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, `[]`, got)
	})

	t.Run("keys are isolated: ok", func(t *testing.T) {
		key1 := "@cart:" + gofakeit.UUID()
		key2 := "@cart:" + gofakeit.UUID()

		require.NoError(t, storage.Set(t.Context(), key1, "one"))

		_, found, err := storage.Get(t.Context(), key2)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("empty key: error", func(t *testing.T) {
		err := storage.Set(t.Context(), "", "x")
		require.EqualError(t, err, "key is empty")

		_, _, err = storage.Get(t.Context(), "")
		require.EqualError(t, err, "key is empty")
	})
}
