package dal

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mcpadmin/models"
	"mcpadmin/utils/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// StoreTestSuite runs the same contract against every backend
type StoreTestSuite struct {
	suite.Suite
	newStore func(t *testing.T, namespace string) KeyValueStore
	store    KeyValueStore
	ctx      context.Context
}

func (suite *StoreTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.store = suite.newStore(suite.T(), "mcpadmin")
}

func (suite *StoreTestSuite) TearDownTest() {
	suite.store.Close()
}

func (suite *StoreTestSuite) TestGetMissingKey() {
	v, ok, err := suite.store.Get(suite.ctx, "absent")
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), ok)
	assert.Nil(suite.T(), v)
}

func (suite *StoreTestSuite) TestSetGetDelete() {
	require.NoError(suite.T(), suite.store.Set(suite.ctx, "activeOrganization", []byte(`{"organizationId":"o1"}`)))

	v, ok, err := suite.store.Get(suite.ctx, "activeOrganization")
	require.NoError(suite.T(), err)
	assert.True(suite.T(), ok)
	assert.JSONEq(suite.T(), `{"organizationId":"o1"}`, string(v))

	require.NoError(suite.T(), suite.store.Set(suite.ctx, "activeOrganization", []byte(`{"organizationId":"o2"}`)))
	v, _, _ = suite.store.Get(suite.ctx, "activeOrganization")
	assert.JSONEq(suite.T(), `{"organizationId":"o2"}`, string(v))

	require.NoError(suite.T(), suite.store.Delete(suite.ctx, "activeOrganization"))
	_, ok, err = suite.store.Get(suite.ctx, "activeOrganization")
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), ok)

	// deleting again is not an error
	assert.NoError(suite.T(), suite.store.Delete(suite.ctx, "activeOrganization"))
}

func (suite *StoreTestSuite) TestClear() {
	require.NoError(suite.T(), suite.store.Set(suite.ctx, "a", []byte("1")))
	require.NoError(suite.T(), suite.store.Set(suite.ctx, "b", []byte("2")))

	require.NoError(suite.T(), suite.store.Clear(suite.ctx))

	for _, k := range []string{"a", "b"} {
		_, ok, err := suite.store.Get(suite.ctx, k)
		assert.NoError(suite.T(), err)
		assert.False(suite.T(), ok, k)
	}
	assert.NoError(suite.T(), suite.store.Clear(suite.ctx))
}

func TestMemoryStore(t *testing.T) {
	suite.Run(t, &StoreTestSuite{newStore: func(t *testing.T, _ string) KeyValueStore {
		return NewMemoryStore()
	}})
}

func TestFileStore(t *testing.T) {
	suite.Run(t, &StoreTestSuite{newStore: func(t *testing.T, namespace string) KeyValueStore {
		store, err := NewFileStore(filepath.Join(t.TempDir(), "state.json"), namespace, logger.NewNopLogger())
		require.NoError(t, err)
		return store
	}})
}

func TestRedisStore(t *testing.T) {
	suite.Run(t, &StoreTestSuite{newStore: func(t *testing.T, namespace string) KeyValueStore {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		return NewRedisStore(client, namespace, 0, logger.NewNopLogger())
	}})
}

func TestFileStoreCorruptFileReadsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	store, err := NewFileStore(path, "mcpadmin", logger.NewNopLogger())
	require.NoError(t, err)

	_, ok, err := store.Get(context.Background(), "activeOrganization")
	assert.NoError(t, err)
	assert.False(t, ok)

	// the next write replaces the corrupt document
	require.NoError(t, store.Set(context.Background(), "k", []byte("v")))
	v, ok, err := store.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", string(v))
}

func TestFileStoreNullNamespaceReadsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"namespaces":{"mcpadmin":null}}`), 0o600))

	store, err := NewFileStore(path, "mcpadmin", logger.NewNopLogger())
	require.NoError(t, err)

	_, ok, err := store.Get(context.Background(), "activeOrganization")
	assert.NoError(t, err)
	assert.False(t, ok)

	assert.NotPanics(t, func() {
		require.NoError(t, store.Set(context.Background(), "activeOrganization", []byte(`{"organizationId":"o1"}`)))
	})
	v, ok, err := store.Get(context.Background(), "activeOrganization")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"organizationId":"o1"}`, string(v))

	assert.NoError(t, store.Delete(context.Background(), "missing"))
	assert.NoError(t, store.Clear(context.Background()))
}

func TestFileStoreNamespacesAreIsolated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	a, err := NewFileStore(path, "a", logger.NewNopLogger())
	require.NoError(t, err)
	b, err := NewFileStore(path, "b", logger.NewNopLogger())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, a.Set(ctx, "k", []byte("from-a")))
	require.NoError(t, b.Set(ctx, "k", []byte("from-b")))
	require.NoError(t, a.Clear(ctx))

	_, ok, _ := a.Get(ctx, "k")
	assert.False(t, ok)
	v, ok, _ := b.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, "from-b", string(v))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestRedisStoreKeysAndTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client, "mcpadmin", time.Hour, logger.NewNopLogger())
	other := NewRedisStore(client, "other", 0, logger.NewNopLogger())
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "activeRole", []byte("x")))
	require.NoError(t, other.Set(ctx, "activeRole", []byte("y")))

	assert.True(t, mr.Exists("mcpadmin:activeRole"))
	assert.Equal(t, time.Hour, mr.TTL("mcpadmin:activeRole"))

	require.NoError(t, store.Clear(ctx))
	assert.False(t, mr.Exists("mcpadmin:activeRole"))
	assert.True(t, mr.Exists("other:activeRole"))
}

func TestNewStore(t *testing.T) {
	log := logger.NewNopLogger()
	ctx := context.Background()

	store, err := NewStore(ctx, &models.Config{StorageBackend: models.StorageBackendMemory}, log)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	store, err = NewStore(ctx, &models.Config{
		StorageBackend:   models.StorageBackendFile,
		StoragePath:      filepath.Join(t.TempDir(), "nested", "state.json"),
		StorageNamespace: "mcpadmin",
	}, log)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)

	mr := miniredis.RunT(t)
	store, err = NewStore(ctx, &models.Config{
		StorageBackend:   models.StorageBackendRedis,
		RedisAddr:        mr.Addr(),
		StorageNamespace: "mcpadmin",
	}, log)
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, store)
	store.Close()

	_, err = NewStore(ctx, &models.Config{StorageBackend: "etcd"}, log)
	assert.Error(t, err)
}
