package persistence

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStoreFilesets(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	assert.NoError(t, err)

	id := "I_npp_d20210131_t0722316_b47905"
	assert.False(t, store.HasFileset(id))

	err = store.AddFileset(FilesetRecord{
		ID:         id,
		GeolocFile: "GIMGO_npp_d20210131_t0722316_e0728120_b47905.h5",
		BandFiles:  []string{"SVI01_npp_d20210131_t0722316_e0728120_b47905.h5"},
	})
	assert.NoError(t, err)
	assert.True(t, store.HasFileset(id))
}

func TestStoreAddFilesetIdempotent(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	assert.NoError(t, err)

	first := FilesetRecord{ID: "x", ProcessedAt: time.Date(2021, 1, 31, 7, 22, 0, 0, time.UTC)}
	assert.NoError(t, store.AddFileset(first))
	assert.NoError(t, store.AddFileset(FilesetRecord{ID: "x", GeolocFile: "other.h5"}))

	// reload and check the first record survived untouched
	reloaded, err := NewStore(dir)
	assert.NoError(t, err)
	assert.Equal(t, first.ProcessedAt, reloaded.data.Filesets["x"].ProcessedAt)
	assert.Empty(t, reloaded.data.Filesets["x"].GeolocFile)
}

func TestStoreReload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	assert.NoError(t, err)
	assert.NoError(t, store.AddFileset(FilesetRecord{ID: "a"}))
	assert.NoError(t, store.SetMeta("last_check_time", int64(1612077736)))

	reloaded, err := NewStore(dir)
	assert.NoError(t, err)
	assert.True(t, reloaded.HasFileset("a"))

	var ts int64
	assert.True(t, reloaded.GetMeta("last_check_time", &ts))
	assert.Equal(t, int64(1612077736), ts)
}

func TestStoreResetFilesets(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	assert.NoError(t, err)
	assert.NoError(t, store.AddFileset(FilesetRecord{ID: "a"}))
	assert.NoError(t, store.SetMeta("k", "v"))

	assert.NoError(t, store.ResetFilesets())
	assert.False(t, store.HasFileset("a"))

	// resetting file sets keeps metadata
	var v string
	assert.True(t, store.GetMeta("k", &v))
	assert.Equal(t, "v", v)
}

func TestStoreDeleteMeta(t *testing.T) {
	store, err := NewStore(t.TempDir())
	assert.NoError(t, err)
	assert.NoError(t, store.SetMeta("k", 1))
	assert.NoError(t, store.DeleteMeta("k"))

	var v int
	assert.False(t, store.GetMeta("k", &v))
}

func TestStoreIgnoresCorruptedFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	assert.NoError(t, err)
	assert.NoError(t, store.AddFileset(FilesetRecord{ID: "a"}))

	// tamper with the file; the bad checksum means the store starts over
	path := filepath.Join(dir, "store.json")
	raw, err := os.ReadFile(path)
	assert.NoError(t, err)
	var data storeFile
	assert.NoError(t, json.Unmarshal(raw, &data))
	data.Checksum = "0000"
	raw, err = json.Marshal(data)
	assert.NoError(t, err)
	assert.NoError(t, os.WriteFile(path, raw, 0644))

	reloaded, err := NewStore(dir)
	assert.NoError(t, err)
	assert.False(t, reloaded.HasFileset("a"))
}
