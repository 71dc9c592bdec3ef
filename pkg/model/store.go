package model

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"

	"github.com/MrCodeEU/fisherface/pkg/faceerr"
	"github.com/MrCodeEU/fisherface/pkg/logging"
)

const (
	// NonceSize is the size of the nonce used for encryption
	NonceSize = 24
	// KeySize is the size of the encryption key
	KeySize = 32

	plainExt     = ".yaml"
	encryptedExt = ".enc"
)

// ErrModelNotFound is returned when a named model does not exist.
var ErrModelNotFound = errors.New("model not found")

// ErrEncryption is returned when a model cannot be decrypted.
var ErrEncryption = errors.New("encryption error")

// Store saves and loads models, optionally encrypted with NaCl secretbox.
// Named models live in a single directory.
type Store struct {
	dir               string
	encryptionEnabled bool
	encryptionKey     [KeySize]byte
}

// NewStore creates a store whose named models live in dir.
func NewStore(dir string, encryptionEnabled bool) (*Store, error) {
	s := &Store{dir: dir, encryptionEnabled: encryptionEnabled}
	if encryptionEnabled {
		s.encryptionKey = deriveKey()
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create models directory: %w", err)
		}
	}
	return s, nil
}

// deriveKey ties encrypted models to this machine and user.
func deriveKey() [KeySize]byte {
	var identity strings.Builder
	if machineID, err := os.ReadFile("/etc/machine-id"); err == nil {
		identity.Write(machineID)
	}
	if hostname, err := os.Hostname(); err == nil {
		identity.WriteString(hostname)
	}
	identity.WriteString(fmt.Sprintf("%d", os.Getuid()))
	identity.WriteString("fisherface-v1-salt")
	return sha256.Sum256([]byte(identity.String()))
}

// Save writes m to path, encrypting it when the store is encrypted.
func (s *Store) Save(path string, m *Model) error {
	var buf bytes.Buffer
	if err := Encode(&buf, m); err != nil {
		return err
	}

	data := buf.Bytes()
	if s.encryptionEnabled {
		var err error
		data, err = s.encrypt(data)
		if err != nil {
			return fmt.Errorf("failed to encrypt model: %w", err)
		}
	}

	// Renamed into place only once fully written.
	tmp := path + ".part"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		_ = os.Remove(tmp)
		return faceerr.Resource("model.Save", "cannot write model", err).WithPath(path)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return faceerr.Resource("model.Save", "cannot write model", err).WithPath(path)
	}

	logging.Component("model").WithFields(logging.Fields{
		"path":      path,
		"model_id":  m.ModelID,
		"encrypted": s.encryptionEnabled,
	}).Info("model saved")
	return nil
}

// Load reads and validates the model at path.
func (s *Store) Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, faceerr.Resource("model.Load", "cannot read model", err).WithPath(path)
	}

	if s.encryptionEnabled {
		data, err = s.decrypt(data)
		if err != nil {
			return nil, faceerr.Wrap(faceerr.KindCorruptModel, "model.Load", "cannot decrypt model", err).WithPath(path)
		}
	}

	m, err := Decode(data)
	if err != nil {
		var fe *faceerr.Error
		if errors.As(err, &fe) && fe.Path == "" {
			fe.Path = path
		}
		return nil, err
	}

	logging.Component("model").WithFields(logging.Fields{
		"path":     path,
		"model_id": m.ModelID,
		"classes":  m.NumClasses(),
	}).Debug("model loaded")
	return m, nil
}

// ModelPath returns the file path of the named model.
func (s *Store) ModelPath(name string) string {
	return filepath.Join(s.dir, name+s.ext())
}

func (s *Store) ext() string {
	if s.encryptionEnabled {
		return encryptedExt
	}
	return plainExt
}

// List returns the sorted names of the models this store can open. Models
// written in the other encryption mode are skipped.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	names := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if name, ok := strings.CutSuffix(entry.Name(), s.ext()); ok && name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Exists reports whether the named model is stored.
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.ModelPath(name))
	return err == nil
}

// Delete removes the named model.
func (s *Store) Delete(name string) error {
	if err := os.Remove(s.ModelPath(name)); err != nil {
		if os.IsNotExist(err) {
			return ErrModelNotFound
		}
		return fmt.Errorf("failed to delete model: %w", err)
	}
	logging.Component("model").WithField("name", name).Info("model deleted")
	return nil
}

func (s *Store) encrypt(plaintext []byte) ([]byte, error) {
	var nonce [NonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, err
	}
	return secretbox.Seal(nonce[:], plaintext, &nonce, &s.encryptionKey), nil
}

func (s *Store) decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < NonceSize {
		return nil, ErrEncryption
	}
	var nonce [NonceSize]byte
	copy(nonce[:], ciphertext[:NonceSize])

	plaintext, ok := secretbox.Open(nil, ciphertext[NonceSize:], &nonce, &s.encryptionKey)
	if !ok {
		return nil, ErrEncryption
	}
	return plaintext, nil
}
