package persistence

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FilesetRecord is what the store remembers about a processed file set.
type FilesetRecord struct {
	ID          string    `json:"id"`
	GeolocFile  string    `json:"geoloc_file"`
	BandFiles   []string  `json:"band_files"`
	ProcessedAt time.Time `json:"processed_at"`
}

type storeFile struct {
	Filesets map[string]FilesetRecord   `json:"filesets"`
	Meta     map[string]json.RawMessage `json:"meta"`
	Checksum string                     `json:"checksum"`
}

// Store is a JSON-file key/value store remembering which file sets were
// already processed plus arbitrary metadata (last check timestamp).
// All methods are safe for concurrent use.
type Store struct {
	mu   sync.Mutex
	path string
	data storeFile
}

func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %v", err)
	}
	s := &Store{
		path: filepath.Join(dataDir, "store.json"),
		data: storeFile{
			Filesets: make(map[string]FilesetRecord),
			Meta:     make(map[string]json.RawMessage),
		},
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read store file: %v", err)
	}

	var data storeFile
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("failed to parse store file: %v", err)
	}
	if data.Checksum != checksum(data.Filesets, data.Meta) {
		// corrupted or hand-edited store, start over
		return nil
	}
	if data.Filesets == nil {
		data.Filesets = make(map[string]FilesetRecord)
	}
	if data.Meta == nil {
		data.Meta = make(map[string]json.RawMessage)
	}
	s.data = data
	return nil
}

func (s *Store) save() error {
	s.data.Checksum = checksum(s.data.Filesets, s.data.Meta)
	raw, err := json.Marshal(s.data)
	if err != nil {
		return fmt.Errorf("failed to marshal store: %v", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0644); err != nil {
		return fmt.Errorf("failed to write temp store file: %v", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename temp store file: %v", err)
	}
	return nil
}

func checksum(filesets map[string]FilesetRecord, meta map[string]json.RawMessage) string {
	raw, _ := json.Marshal(struct {
		Filesets map[string]FilesetRecord   `json:"filesets"`
		Meta     map[string]json.RawMessage `json:"meta"`
	}{filesets, meta})
	sum := md5.Sum(raw)
	return hex.EncodeToString(sum[:])
}

func (s *Store) HasFileset(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data.Filesets[id]
	return ok
}

// AddFileset records a processed file set. Recording the same file set
// twice is a no-op, so marking is safe to repeat.
func (s *Store) AddFileset(record FilesetRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.Filesets[record.ID]; ok {
		return nil
	}
	if record.ProcessedAt.IsZero() {
		record.ProcessedAt = time.Now()
	}
	s.data.Filesets[record.ID] = record
	return s.save()
}

func (s *Store) ResetFilesets() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Filesets = make(map[string]FilesetRecord)
	return s.save()
}

// GetMeta unmarshals the value stored under key into out and reports
// whether the key was present.
func (s *Store) GetMeta(key string, out interface{}) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.data.Meta[key]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

func (s *Store) SetMeta(key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal meta value: %v", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Meta[key] = raw
	return s.save()
}

func (s *Store) DeleteMeta(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data.Meta, key)
	return s.save()
}
