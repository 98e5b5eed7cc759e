package cryptox

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	SetPepper("test-pepper")
	os.Exit(m.Run())
}

func TestHashSecret_Format(t *testing.T) {
	hash, err := HashSecret("s3cret")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=19456,t=2,p=1$"))
	require.Len(t, strings.Split(hash, "$"), 6)

	again, err := HashSecret("s3cret")
	require.NoError(t, err)
	require.NotEqual(t, hash, again, "salts must differ")
}

func TestVerifySecret_Argon2id(t *testing.T) {
	hash, err := HashSecret("correct horse")
	require.NoError(t, err)

	require.NoError(t, VerifySecret("correct horse", hash))

	for _, wrong := range []string{"", "correct horse ", "Correct horse", "correct hors"} {
		t.Run(wrong, func(t *testing.T) {
			require.ErrorIs(t, VerifySecret(wrong, hash), ErrMismatch)
		})
	}
}

func TestVerifySecret_PepperChangeInvalidates(t *testing.T) {
	hash, err := HashSecret("peppered")
	require.NoError(t, err)

	SetPepper("another-pepper")
	t.Cleanup(func() { SetPepper("test-pepper") })

	require.ErrorIs(t, VerifySecret("peppered", hash), ErrMismatch)
}

func TestVerifySecret_Bcrypt(t *testing.T) {
	raw, err := bcrypt.GenerateFromPassword([]byte("legacy-secret"), bcrypt.MinCost)
	require.NoError(t, err)

	require.NoError(t, VerifySecret("legacy-secret", string(raw)))
	require.ErrorIs(t, VerifySecret("other", string(raw)), ErrMismatch)
}

func TestVerifySecret_Malformed(t *testing.T) {
	tests := map[string]string{
		"empty":          "",
		"plaintext":      "legacy-secret",
		"missing parts":  "$argon2id$v=19$m=19456",
		"bad params":     "$argon2id$v=19$invalid$c2FsdA$aGFzaA",
		"bad salt":       "$argon2id$v=19$m=19456,t=2,p=1$!!!$aGFzaA",
		"bad digest":     "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$!!!",
		"wrong version":  "$argon2id$v=18$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		"unknown scheme": "$scrypt$ln=15,r=8,p=1$c2FsdA$aGFzaA",
	}
	for name, hash := range tests {
		t.Run(name, func(t *testing.T) {
			require.ErrorIs(t, VerifySecret("x", hash), ErrUnsupportedHash)
		})
	}
}

func TestBurnVerification(t *testing.T) {
	require.NotPanics(t, func() { BurnVerification("anything") })
}

func TestLoadPepper(t *testing.T) {
	t.Cleanup(func() { SetPepper("test-pepper") })

	path := filepath.Join(t.TempDir(), "nested", "pepper")
	require.NoError(t, LoadPepper(path))
	first := currentPepper()
	require.NotEmpty(t, first)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, first, string(raw))

	SetPepper("")
	require.NoError(t, LoadPepper(path))
	require.Equal(t, first, currentPepper(), "existing pepper file is reused")

	require.NoError(t, LoadPepper(""))
	require.Empty(t, currentPepper())
}
