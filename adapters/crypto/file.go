package crypto

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"tabguard/domain/core"
)

// fileMagic identifies an encrypted container; the byte after it is the
// envelope version, so the format can evolve without breaking round trips.
var fileMagic = []byte("TGRD")

// EncryptedExtension is appended to the input path by EncryptFile
const EncryptedExtension = ".tgv"

// EncryptFile encrypts a whole file with the same hybrid scheme used for
// cells and writes an opaque container next to it. Returns the output path.
func EncryptFile(path string, pub *PublicKey) (string, error) {
	plaintext, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading input file: %w", err)
	}

	envelope, err := sealBytes(pub, plaintext)
	if err != nil {
		return "", err
	}

	outPath := path + EncryptedExtension
	container := make([]byte, 0, len(fileMagic)+len(envelope))
	container = append(container, fileMagic...)
	container = append(container, envelope...)
	if err := os.WriteFile(outPath, container, 0o600); err != nil {
		return "", fmt.Errorf("writing encrypted container: %w", err)
	}
	return outPath, nil
}

// DecryptFile reverses EncryptFile. The output path must differ from the
// input path; refusing to overwrite the ciphertext guards against losing
// the only encrypted copy on a failed write.
func DecryptFile(path string, priv *PrivateKey, passphrase, outputPath string) error {
	if samePath(path, outputPath) {
		return core.ErrOutputPathConflict
	}

	container, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading encrypted container: %w", err)
	}
	if !bytes.HasPrefix(container, fileMagic) {
		return core.NewCorruptCiphertextError("missing container magic")
	}

	rsaKey, err := priv.Unlock(passphrase)
	if err != nil {
		return err
	}

	plaintext, err := openBytes(rsaKey, container[len(fileMagic):])
	if err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, plaintext, 0o600); err != nil {
		return fmt.Errorf("writing decrypted output: %w", err)
	}
	return nil
}

// samePath compares two paths after normalization, falling back to the
// cleaned form when absolute resolution fails.
func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
