package credstore

import (
	"context"
	"bytes"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	apperrors "github.com/jrsteele09/go-storefront/internal/errors"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	saltSize  = 16
	nonceSize = 24
	keySize   = 32

	// argon2id cost
	kdfTime    = 2
	kdfMemory  = 19 * 1024 // KiB
	kdfThreads = 1
)

var _ Storage = (*FileStorage)(nil)

// FileStorage keeps all keys in one JSON document on disk. With a passphrase the
// document is sealed with NaCl secretbox before it is written; the key is derived
// with argon2id and a random salt kept at the head of the file (salt | nonce | box).
type FileStorage struct {
	path       string
	passphrase []byte
	salt       []byte // salt the cached key was derived from
	key        [keySize]byte
	lock       sync.Mutex
}

func NewFileStorage(path, passphrase string) (*FileStorage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("[FileStorage] create folder: %w", err)
	}
	s := &FileStorage{path: path}
	if passphrase != "" {
		s.passphrase = []byte(passphrase)
	}
	return s, nil
}

func (s *FileStorage) Get(_ context.Context, key string) (string, bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	values, err := s.load()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

func (s *FileStorage) Set(_ context.Context, key, value string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	values[key] = value
	return s.save(values)
}

func (s *FileStorage) Delete(_ context.Context, keys ...string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	for _, k := range keys {
		delete(values, k)
	}
	return s.save(values)
}

func (s *FileStorage) load() (map[string]string, error) {
	values := make(map[string]string)

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return values, nil
	}
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrStorage, "read %s: %v", s.path, err)
	}
	if len(data) == 0 {
		return values, nil
	}

	if s.sealed() {
		if data, err = s.open(data); err != nil {
			return nil, err
		}
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrStorage, "decode %s: %v", s.path, err)
	}
	return values, nil
}

// save writes to a temp file and renames it over the old document
func (s *FileStorage) save(values map[string]string) error {
	data, err := json.Marshal(values)
	if err != nil {
		return apperrors.Wrapf(apperrors.ErrStorage, "encode: %v", err)
	}
	if s.sealed() {
		if data, err = s.seal(data); err != nil {
			return err
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".credentials-*")
	if err != nil {
		return apperrors.Wrapf(apperrors.ErrStorage, "create temp file: %v", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return apperrors.Wrapf(apperrors.ErrStorage, "write temp file: %v", err)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.Wrapf(apperrors.ErrStorage, "close temp file: %v", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return apperrors.Wrapf(apperrors.ErrStorage, "replace %s: %v", s.path, err)
	}
	return nil
}

func (s *FileStorage) sealed() bool {
	return len(s.passphrase) > 0
}

// useSalt derives the key for salt unless it is already cached. Caller holds the lock.
func (s *FileStorage) useSalt(salt []byte) {
	if s.salt != nil && bytes.Equal(s.salt, salt) {
		return
	}
	copy(s.key[:], argon2.IDKey(s.passphrase, salt, kdfTime, kdfMemory, kdfThreads, keySize))
	s.salt = append([]byte(nil), salt...)
}

func (s *FileStorage) seal(plain []byte) ([]byte, error) {
	if s.salt == nil {
		salt := make([]byte, saltSize)
		if _, err := io.ReadFull(rand.Reader, salt); err != nil {
			return nil, apperrors.Wrapf(apperrors.ErrStorage, "salt: %v", err)
		}
		s.useSalt(salt)
	}

	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrStorage, "nonce: %v", err)
	}
	out := make([]byte, 0, saltSize+nonceSize+len(plain)+secretbox.Overhead)
	out = append(out, s.salt...)
	out = append(out, nonce[:]...)
	return secretbox.Seal(out, plain, &nonce, &s.key), nil
}

func (s *FileStorage) open(box []byte) ([]byte, error) {
	if len(box) < saltSize+nonceSize {
		return nil, apperrors.Wrapf(apperrors.ErrStorage, "sealed file %s is truncated", s.path)
	}
	s.useSalt(box[:saltSize])

	var nonce [nonceSize]byte
	copy(nonce[:], box[saltSize:saltSize+nonceSize])
	plain, ok := secretbox.Open(nil, box[saltSize+nonceSize:], &nonce, &s.key)
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrStorage, "cannot open sealed file %s", s.path)
	}
	return plain, nil
}
