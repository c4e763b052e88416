package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptSecretRoundTrip(t *testing.T) {
	t.Setenv("OTPGATE_MASTER_KEY", "test-master-key-material")
	ResetMasterKeyForTesting()
	t.Cleanup(ResetMasterKeyForTesting)

	plaintext := "JBSWY3DPEHPK3PXPJBSWY3DPEHPK3PXP"

	sealed, err := EncryptSecret(plaintext)
	require.NoError(t, err)
	require.NotEqual(t, plaintext, sealed)

	opened, err := DecryptSecret(sealed)
	require.NoError(t, err)
	require.Equal(t, plaintext, opened)
}

func TestEncryptSecretUsesRandomNonce(t *testing.T) {
	t.Setenv("OTPGATE_MASTER_KEY", "test-master-key-material")
	ResetMasterKeyForTesting()
	t.Cleanup(ResetMasterKeyForTesting)

	a, err := EncryptSecret("same input")
	require.NoError(t, err)
	b, err := EncryptSecret("same input")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestDecryptSecretRejectsTampering(t *testing.T) {
	t.Setenv("OTPGATE_MASTER_KEY", "test-master-key-material")
	ResetMasterKeyForTesting()
	t.Cleanup(ResetMasterKeyForTesting)

	sealed, err := EncryptSecret("payload")
	require.NoError(t, err)

	tail := "AA"
	if sealed[len(sealed)-1] == 'A' {
		tail = "BB"
	}
	_, err = DecryptSecret(sealed[:len(sealed)-2] + tail)
	require.Error(t, err)

	_, err = DecryptSecret("not base64!!")
	require.Error(t, err)

	_, err = DecryptSecret("")
	require.Error(t, err)
}

func TestFingerprint(t *testing.T) {
	t.Parallel()

	a := Fingerprint("123456")
	b := Fingerprint("123456")
	c := Fingerprint("123457")

	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
	require.True(t, FingerprintEqual(a, b))
	require.False(t, FingerprintEqual(a, c))
}
