package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const fileStoreVersion = "1.0"

type fileDocument struct {
	Version   string            `yaml:"version"`
	Timestamp time.Time         `yaml:"timestamp"`
	Values    map[string]string `yaml:"values"`
}

func newFileDocument() fileDocument {
	return fileDocument{
		Version:   fileStoreVersion,
		Timestamp: time.Now().UTC(),
		Values:    make(map[string]string),
	}
}

// FileStore keeps the persisted values in a YAML file readable only by the
// owner. Every write commits the whole document.
type FileStore struct {
	lock sync.Mutex
	path string
	doc  fileDocument
}

func OpenFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path: path,
		doc:  newFileDocument(),
	}

	if err := s.Load(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Get(key string) (string, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	value, ok := s.doc.Values[key]
	return value, ok
}

func (s *FileStore) Set(key string, value string) error {
	logrus.WithFields(logrus.Fields{
		"path": s.path,
		"key":  key,
	}).Debugln("Persisting value")

	s.lock.Lock()
	defer s.lock.Unlock()

	s.doc.Values[key] = value
	return s.commitLocked()
}

func (s *FileStore) Remove(keys ...string) error {
	logrus.WithFields(logrus.Fields{
		"path": s.path,
		"keys": keys,
	}).Debugln("Removing persisted values")

	s.lock.Lock()
	defer s.lock.Unlock()

	for _, key := range keys {
		delete(s.doc.Values, key)
	}
	return s.commitLocked()
}

// Load replaces the in-memory document with the file contents. An empty or
// unparsable file starts a fresh document.
func (s *FileStore) Load() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	file, err := s.openFile()
	if err != nil {
		return err
	}
	defer file.Close()

	fileInfo, err := file.Stat()
	if err != nil {
		return err
	}

	if fileInfo.Size() == 0 {
		s.doc = newFileDocument()
		return nil
	}

	var doc fileDocument
	if err := yaml.NewDecoder(file).Decode(&doc); err != nil {
		logrus.WithError(err).Errorf("Failed to parse storage file %s, reinitializing", s.path)
		s.doc = newFileDocument()
		return nil
	}

	if doc.Values == nil {
		doc.Values = make(map[string]string)
	}

	s.doc = doc
	return nil
}

func (s *FileStore) commitLocked() error {
	file, err := s.openFile()
	if err != nil {
		return err
	}
	defer file.Close()

	if err := file.Truncate(0); err != nil {
		return err
	}

	if _, err := file.Seek(0, 0); err != nil {
		return err
	}

	s.doc.Timestamp = time.Now().UTC()

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	defer encoder.Close()

	return encoder.Encode(s.doc)
}

func (s *FileStore) openFile() (*os.File, error) {
	dir := filepath.Dir(s.path)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	// Only allow read/write access to the owner
	file, err := os.OpenFile(s.path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage file: %w", err)
	}
	return file, nil
}
