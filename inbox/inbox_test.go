// ABOUTME: Tests for the file-drop inbox watcher
// ABOUTME: Drops batch files into a temp dir and checks reconcile results and filing
package inbox

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/outreach/db"
	"github.com/harperreed/outreach/models"
	"github.com/harperreed/outreach/tracker"
)

const (
	adaURL = "https://www.linkedin.com/in/ada"
	bobURL = "https://www.linkedin.com/in/bob"
)

func setupTracker(t *testing.T) *tracker.Tracker {
	t.Helper()
	store, err := db.OpenSQLiteStore(filepath.Join(t.TempDir(), "outreach.db"))
	require.NoError(t, err)
	tr, err := tracker.New(context.Background(), store, tracker.Options{})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = tr.Close()
		_ = store.Close()
	})

	_, err = tr.RecordOutreachSent(context.Background(), models.ContactInput{ProfileID: adaURL, Name: "Ada"})
	require.NoError(t, err)
	return tr
}

// outageStore fails every Load while down is set.
type outageStore struct {
	db.Store
	down  atomic.Bool
	loads atomic.Int32
}

func (s *outageStore) Load(ctx context.Context) (models.Snapshot, error) {
	s.loads.Add(1)
	if s.down.Load() {
		return models.Snapshot{}, errors.New("disk unplugged")
	}
	return s.Store.Load(ctx)
}

func writeBatch(t *testing.T, dir, name, body string) string {
	t.Helper()
	tmp := filepath.Join(dir, "."+name+".tmp")
	require.NoError(t, os.WriteFile(tmp, []byte(body), 0600))
	path := filepath.Join(dir, name)
	require.NoError(t, os.Rename(tmp, path))
	return path
}

func TestParseBatchForms(t *testing.T) {
	batch, err := ParseBatch(strings.NewReader(`[{"profileUrl":"` + adaURL + `","name":"Ada"}]`))
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, adaURL, batch[0].ProfileID)

	batch, err = ParseBatch(strings.NewReader(`{"connections":[{"profileUrl":"` + bobURL + `","name":"Bob"}]}`))
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, "Bob", batch[0].Name)

	_, err = ParseBatch(strings.NewReader(`<html>`))
	assert.ErrorIs(t, err, ErrMalformedBatch)
}

func TestProcessDirFilesBatches(t *testing.T) {
	tr := setupTracker(t)
	dir := t.TempDir()
	writeBatch(t, dir, "001.json", `{"connections":[{"profileUrl":"`+adaURL+`","name":"Ada"},{"profileUrl":"`+bobURL+`","name":"Bob"}]}`)
	writeBatch(t, dir, "002.json", `not json`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore"), 0600))

	w := NewWatcher(dir, tr, nil)
	require.NoError(t, w.ProcessDir(context.Background()))

	_, set, ok := tr.Snapshot().Locate(adaURL)
	require.True(t, ok)
	assert.Equal(t, models.SetTracked, set)
	_, _, ok = tr.Snapshot().Locate(bobURL)
	assert.False(t, ok)

	assert.FileExists(t, filepath.Join(dir, ProcessedDir, "001.json"))
	assert.FileExists(t, filepath.Join(dir, FailedDir, "002.json"))
	assert.FileExists(t, filepath.Join(dir, "notes.txt"))
	assert.NoFileExists(t, filepath.Join(dir, "001.json"))
}

func TestProcessFileReport(t *testing.T) {
	tr := setupTracker(t)
	dir := t.TempDir()
	path := writeBatch(t, dir, "scan.json", `[{"profileUrl":"`+adaURL+`","name":"Ada"},{"profileUrl":"","name":"x"}]`)

	report, err := NewWatcher(dir, tr, nil).ProcessFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Accepted)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, report.TrackedTotal)
}

func TestRunPicksUpDroppedFiles(t *testing.T) {
	tr := setupTracker(t)
	dir := t.TempDir()
	writeBatch(t, dir, "early.json", `[]`)

	ctx, cancel := context.WithCancel(context.Background())
	w := NewWatcher(dir, tr, nil)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(dir, ProcessedDir, "early.json"))
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	writeBatch(t, dir, "late.json", `[{"profileUrl":"`+adaURL+`","name":"Ada"}]`)

	require.Eventually(t, func() bool {
		_, set, ok := tr.Snapshot().Locate(adaURL)
		return ok && set == models.SetTracked
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestRunRetriesAfterStorageOutage(t *testing.T) {
	sqlite, err := db.OpenSQLiteStore(filepath.Join(t.TempDir(), "outreach.db"))
	require.NoError(t, err)
	store := &outageStore{Store: sqlite}
	tr, err := tracker.New(context.Background(), store, tracker.Options{})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = tr.Close()
		_ = sqlite.Close()
	})
	_, err = tr.RecordOutreachSent(context.Background(), models.ContactInput{ProfileID: adaURL, Name: "Ada"})
	require.NoError(t, err)

	dir := t.TempDir()
	store.down.Store(true)
	base := store.loads.Load()
	writeBatch(t, dir, "scan.json", `[{"profileUrl":"`+adaURL+`","name":"Ada"}]`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := NewWatcher(dir, tr, nil)
	w.settle = 20 * time.Millisecond
	w.retry = 100 * time.Millisecond
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		return store.loads.Load() > base+1
	}, 5*time.Second, 10*time.Millisecond, "batch should be retried while storage is down")
	assert.FileExists(t, filepath.Join(dir, "scan.json"))

	store.down.Store(false)
	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(dir, ProcessedDir, "scan.json"))
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)

	_, set, ok := tr.Snapshot().Locate(adaURL)
	require.True(t, ok)
	assert.Equal(t, models.SetTracked, set)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
