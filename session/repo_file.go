package session

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jrsteele09/aams-client/internal/errors"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	sealedVersion = 1
	saltLength    = 16

	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

var _ Repo = (*FileRepo)(nil)

// sealedFile is the on-disk layout of an encrypted session file
type sealedFile struct {
	Version int    `json:"version"`
	Salt    []byte `json:"salt"`
	Nonce   []byte `json:"nonce"`
	Data    []byte `json:"data"`
}

// FileRepo persists session keys as a JSON object in a single file.
// With a passphrase the object is sealed with XChaCha20-Poly1305.
type FileRepo struct {
	path       string
	passphrase string

	mu   sync.Mutex
	salt []byte
	key  []byte
}

type FileOption func(*FileRepo)

// WithPassphrase seals the file with a key derived from passphrase
func WithPassphrase(passphrase string) FileOption {
	return func(r *FileRepo) {
		r.passphrase = passphrase
	}
}

// NewFileRepo creates a file backed repository, the file is created on first write
func NewFileRepo(path string, opts ...FileOption) *FileRepo {
	r := &FileRepo{path: path}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Path returns the session file location
func (r *FileRepo) Path() string {
	return r.path
}

func (r *FileRepo) Get(key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	values, err := r.load()
	if err != nil {
		return "", err
	}
	v, ok := values[key]
	if !ok {
		return "", errors.ErrKeyNotFound
	}
	return v, nil
}

func (r *FileRepo) Set(key, value string) error {
	if key == "" {
		return fmt.Errorf("key is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	values, err := r.load()
	if err != nil {
		return err
	}
	values[key] = value
	return r.save(values)
}

func (r *FileRepo) Remove(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	values, err := r.load()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return r.save(values)
}

func (r *FileRepo) load() (map[string]string, error) {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("[FileRepo load] failed to read %s: %w", r.path, err)
	}
	if len(data) == 0 {
		return make(map[string]string), nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("[FileRepo load] corrupt session file: %w", err)
	}
	_, hasSalt := envelope["salt"]
	_, hasData := envelope["data"]
	if hasSalt && hasData {
		return r.open(data)
	}

	values := make(map[string]string)
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("[FileRepo load] corrupt session file: %w", err)
	}
	return values, nil
}

func (r *FileRepo) save(values map[string]string) error {
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("[FileRepo save] failed to encode session: %w", err)
	}
	if r.passphrase != "" {
		if data, err = r.seal(data); err != nil {
			return err
		}
	}
	return writeFileAtomic(r.path, data)
}

func (r *FileRepo) open(data []byte) (map[string]string, error) {
	if r.passphrase == "" {
		return nil, errors.ErrSessionSealed
	}

	var sf sealedFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("[FileRepo open] corrupt sealed session: %w", err)
	}
	if sf.Version != sealedVersion {
		return nil, fmt.Errorf("[FileRepo open] unsupported session file version %d", sf.Version)
	}

	aead, err := chacha20poly1305.NewX(r.deriveKey(sf.Salt))
	if err != nil {
		return nil, fmt.Errorf("[FileRepo open] %w", err)
	}
	if len(sf.Nonce) != aead.NonceSize() {
		return nil, fmt.Errorf("[FileRepo open] invalid nonce length %d", len(sf.Nonce))
	}
	plain, err := aead.Open(nil, sf.Nonce, sf.Data, nil)
	if err != nil {
		return nil, errors.ErrInvalidPassword
	}

	values := make(map[string]string)
	if err := json.Unmarshal(plain, &values); err != nil {
		return nil, fmt.Errorf("[FileRepo open] corrupt session payload: %w", err)
	}
	return values, nil
}

func (r *FileRepo) seal(plain []byte) ([]byte, error) {
	if r.salt == nil {
		salt := make([]byte, saltLength)
		if _, err := rand.Read(salt); err != nil {
			return nil, fmt.Errorf("[FileRepo seal] failed to generate salt: %w", err)
		}
		r.salt = salt
	}

	aead, err := chacha20poly1305.NewX(r.deriveKey(r.salt))
	if err != nil {
		return nil, fmt.Errorf("[FileRepo seal] %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("[FileRepo seal] failed to generate nonce: %w", err)
	}

	return json.Marshal(sealedFile{
		Version: sealedVersion,
		Salt:    r.salt,
		Nonce:   nonce,
		Data:    aead.Seal(nil, nonce, plain, nil),
	})
}

// deriveKey caches the argon2 key for the most recent salt
func (r *FileRepo) deriveKey(salt []byte) []byte {
	if r.key != nil && string(r.salt) == string(salt) {
		return r.key
	}
	r.salt = append([]byte(nil), salt...)
	r.key = argon2.IDKey([]byte(r.passphrase), r.salt, argonTime, argonMemory, argonThreads, chacha20poly1305.KeySize)
	return r.key
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("[FileRepo save] failed to create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("[FileRepo save] failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("[FileRepo save] failed to write session: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("[FileRepo save] failed to chmod session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("[FileRepo save] failed to close session: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("[FileRepo save] failed to replace session: %w", err)
	}
	return nil
}
