package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Argon2id parameters for newly hashed secrets.
const (
	memory      = 19 * 1024 // KiB
	iterations  = 2
	parallelism = 1
	keyLength   = 32
	saltLength  = 16
)

var (
	pepperMu sync.RWMutex
	pepper   string
)

// LoadPepper reads the pepper from path, creating the file with a fresh
// random value when it does not exist yet. An empty path disables peppering.
//
// The pepper only applies to Argon2id hashes. Changing it invalidates every
// Argon2id secret hashed with the previous value.
func LoadPepper(path string) error {
	if strings.TrimSpace(path) == "" {
		SetPepper("")
		return nil
	}

	path = filepath.Clean(path)
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return err
		}

		buf := make([]byte, keyLength)
		if _, err := rand.Read(buf); err != nil {
			return err
		}
		generated := base64.RawURLEncoding.EncodeToString(buf)
		if err := os.WriteFile(path, []byte(generated), 0o600); err != nil {
			return err
		}
		SetPepper(generated)
		return nil
	}
	if err != nil {
		return err
	}

	SetPepper(strings.TrimSpace(string(raw)))
	return nil
}

// SetPepper replaces the active pepper.
func SetPepper(p string) {
	pepperMu.Lock()
	pepper = p
	pepperMu.Unlock()
}

func currentPepper() string {
	pepperMu.RLock()
	defer pepperMu.RUnlock()
	return pepper
}
