package cache

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"pos-insights/dao/redis"
	"pos-insights/db"
	"pos-insights/logging"
	"pos-insights/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDataset(n int) *models.Dataset {
	ds := &models.Dataset{Columns: []string{"item_type"}}
	for i := 0; i < n; i++ {
		ds.Records = append(ds.Records, models.CanonicalTransaction{ItemType: "Fastfood", TransactionType: "Cash"})
	}
	return ds
}

func backends(t *testing.T) map[string]DatasetCache {
	t.Helper()
	dao := redis.NewRedisDatasetDAO(db.NewMockRedisClient(context.Background()))
	return map[string]DatasetCache{
		"memory": NewMemoryCache(0),
		"redis":  NewRedisCache(dao, 0, logging.Discard()),
	}
}

func TestDatasetCache_KeyedByModTime(t *testing.T) {
	mod := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			// Arrange
			key := Key{Path: "/data/a.csv", ModTime: mod}
			c.Put(key, testDataset(2))

			// Act
			hit, ok := c.Get(key)
			_, staleOK := c.Get(Key{Path: "/data/a.csv", ModTime: mod.Add(time.Second)})
			_, otherOK := c.Get(Key{Path: "/data/b.csv", ModTime: mod})

			// Assert
			require.True(t, ok)
			assert.Equal(t, 2, hit.Len())
			assert.False(t, staleOK)
			assert.False(t, otherOK)
		})
	}
}

func TestDatasetCache_Invalidate(t *testing.T) {
	mod := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			a := Key{Path: "/data/a.csv", ModTime: mod}
			b := Key{Path: "/data/b.csv", ModTime: mod}
			c.Put(a, testDataset(1))
			c.Put(b, testDataset(1))

			c.Invalidate("/data/a.csv")
			_, aOK := c.Get(a)
			_, bOK := c.Get(b)
			assert.False(t, aOK)
			assert.True(t, bOK)

			c.Invalidate("")
			_, bOK = c.Get(b)
			assert.False(t, bOK)
		})
	}
}

func TestMemoryCache_TTL(t *testing.T) {
	// Arrange
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache(time.Minute)
	c.now = func() time.Time { return now }
	key := Key{Path: "/a.csv", ModTime: now}
	c.Put(key, testDataset(1))

	// Act
	_, fresh := c.Get(key)
	now = now.Add(time.Minute)
	_, expired := c.Get(key)

	// Assert
	assert.True(t, fresh)
	assert.False(t, expired)
	assert.Equal(t, 1, c.Len())
}

func TestMemoryCache_Concurrent(t *testing.T) {
	c := NewMemoryCache(0)
	key := Key{Path: "/a.csv", ModTime: time.Unix(1, 0)}
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Put(key, testDataset(i))
			c.Get(key)
			if i%4 == 0 {
				c.Invalidate(key.Path)
			}
		}(i)
	}
	wg.Wait()
}

func TestWatcher_InvalidatesOnWrite(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	path := filepath.Join(dir, "processed.csv")
	require.NoError(t, os.WriteFile(path, []byte("a\n1\n"), 0o644))
	abs, err := filepath.Abs(path)
	require.NoError(t, err)

	c := NewMemoryCache(0)
	key := Key{Path: abs, ModTime: time.Unix(1, 0)}
	c.Put(key, testDataset(1))

	w, err := NewWatcher(c, logging.Discard())
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Watch(path))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	// Act
	require.NoError(t, os.WriteFile(path, []byte("a\n2\n"), 0o644))

	// Assert
	assert.Eventually(t, func() bool {
		_, ok := c.Get(key)
		return !ok
	}, 2*time.Second, 10*time.Millisecond)
}
