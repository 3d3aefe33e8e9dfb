// ABOUTME: Tests for the local Badger-backed charm client
// ABOUTME: Covers missing keys, overwrite, reset and status output

package charm

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/outreach/db"
	"github.com/harperreed/outreach/models"
)

func newLocal(t *testing.T) *Client {
	t.Helper()
	c, err := NewLocalClient(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestLocalClientMissingKey(t *testing.T) {
	c := newLocal(t)

	val, err := c.Get([]byte("nope"))
	require.NoError(t, err)
	assert.Nil(t, val)
}

func TestLocalClientSetGetDelete(t *testing.T) {
	c := newLocal(t)

	require.NoError(t, c.Set([]byte("k"), []byte("v1")))
	require.NoError(t, c.Set([]byte("k"), []byte("v2")))

	val, err := c.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), val)

	keys, err := c.Keys()
	require.NoError(t, err)
	assert.Len(t, keys, 1)

	require.NoError(t, c.Delete([]byte("k")))
	val, err = c.Get([]byte("k"))
	require.NoError(t, err)
	assert.Nil(t, val)
}

func TestLocalClientReset(t *testing.T) {
	c := newLocal(t)
	require.NoError(t, c.Set([]byte("a"), []byte("1")))
	require.NoError(t, c.Set([]byte("b"), []byte("2")))

	require.NoError(t, c.Reset())

	keys, err := c.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestLocalClientBacksKVStore(t *testing.T) {
	c := newLocal(t)
	store := db.NewKVStore(c)
	ctx := context.Background()

	snap := models.NewSnapshot()
	snap.Put(models.SetPending, models.ContactRecord{ProfileID: "p1", Name: "Pat", Stage: models.StagePending})
	require.NoError(t, store.Save(ctx, snap))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Pat", got.Pending["p1"].Name)
}

func TestLocalClientIsNotLinkable(t *testing.T) {
	c := newLocal(t)
	assert.True(t, c.IsLocal())
	assert.False(t, c.IsConnected())

	var buf bytes.Buffer
	assert.Error(t, Link(&buf, c))
}

func TestStatusReportsKeyCount(t *testing.T) {
	c := newLocal(t)
	require.NoError(t, c.Set([]byte(db.StateKey), []byte("{}")))

	var buf bytes.Buffer
	require.NoError(t, Status(&buf, c))

	out := buf.String()
	assert.Contains(t, out, "local store")
	assert.Contains(t, out, "Keys:      1")
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{AutoSync: true}.WithDefaults()
	assert.Equal(t, DefaultCharmHost, cfg.Host)
	assert.True(t, cfg.AutoSync)
	assert.NotZero(t, cfg.StaleThreshold)
}
