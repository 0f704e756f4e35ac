package crypto

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"tabguard/domain/core"
)

func TestEncryptFile_RoundTrip(t *testing.T) {
	pair := testKeyPair(t)
	dir := t.TempDir()

	content := []byte("age,sex\n42,Female\n57,Male\n")
	inputPath := filepath.Join(dir, "cohort.csv")
	if err := os.WriteFile(inputPath, content, 0o644); err != nil {
		t.Fatal(err)
	}

	outPath, err := EncryptFile(inputPath, pair.Public)
	if err != nil {
		t.Fatalf("EncryptFile failed: %v", err)
	}
	if outPath != inputPath+EncryptedExtension {
		t.Errorf("output path = %s, want %s", outPath, inputPath+EncryptedExtension)
	}

	container, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(container, []byte("Female")) {
		t.Error("container leaks plaintext")
	}

	restoredPath := filepath.Join(dir, "restored.csv")
	if err := DecryptFile(outPath, pair.Private, testPassphrase, restoredPath); err != nil {
		t.Fatalf("DecryptFile failed: %v", err)
	}
	restored, err := os.ReadFile(restoredPath)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(restored, content) {
		t.Error("decrypted bytes differ from original")
	}
}

func TestDecryptFile_RefusesSamePath(t *testing.T) {
	pair := testKeyPair(t)
	dir := t.TempDir()

	inputPath := filepath.Join(dir, "data.txt")
	if err := os.WriteFile(inputPath, []byte("payload"), 0o644); err != nil {
		t.Fatal(err)
	}
	outPath, err := EncryptFile(inputPath, pair.Public)
	if err != nil {
		t.Fatalf("EncryptFile failed: %v", err)
	}

	err = DecryptFile(outPath, pair.Private, testPassphrase, outPath)
	if !errors.Is(err, core.ErrOutputPathConflict) {
		t.Errorf("same-path decryption: got %v, want OutputPathConflict", err)
	}

	// An unnormalized spelling of the same path is still refused.
	dotted := filepath.Join(dir, ".", "data.txt"+EncryptedExtension)
	err = DecryptFile(outPath, pair.Private, testPassphrase, dotted)
	if !errors.Is(err, core.ErrOutputPathConflict) {
		t.Errorf("aliased same-path decryption: got %v, want OutputPathConflict", err)
	}

	// The container must survive the refused attempts.
	if _, statErr := os.Stat(outPath); statErr != nil {
		t.Fatalf("container missing after refused decryption: %v", statErr)
	}
}

func TestDecryptFile_TamperedContainer(t *testing.T) {
	pair := testKeyPair(t)
	dir := t.TempDir()

	inputPath := filepath.Join(dir, "data.txt")
	if err := os.WriteFile(inputPath, []byte("payload"), 0o644); err != nil {
		t.Fatal(err)
	}
	outPath, err := EncryptFile(inputPath, pair.Public)
	if err != nil {
		t.Fatalf("EncryptFile failed: %v", err)
	}

	container, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	container[len(container)-1] ^= 0xff
	if err := os.WriteFile(outPath, container, 0o600); err != nil {
		t.Fatal(err)
	}

	err = DecryptFile(outPath, pair.Private, testPassphrase, filepath.Join(dir, "out.txt"))
	if !core.IsCiphertextError(err) {
		t.Errorf("tampered container: got %v, want CorruptCiphertext", err)
	}
}
