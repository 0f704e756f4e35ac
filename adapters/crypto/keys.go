// Package crypto implements field-level envelope encryption for tabular
// data: RSA-OAEP wrapped AES-256-GCM, a passphrase-protected private key,
// and whole-file analogs of the column operations.
//
// The private key is the single root of trust. If the key file or its
// passphrase is lost, every ciphertext produced with the matching public
// key is permanently unrecoverable. There is no recovery path.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"

	"golang.org/x/crypto/scrypt"

	"tabguard/domain/core"
)

const (
	rsaKeyBits = 2048

	publicKeyPEMType  = "PUBLIC KEY"
	privateKeyPEMType = "TABGUARD ENCRYPTED PRIVATE KEY"

	scryptN      = 1 << 15
	scryptR      = 8
	scryptP      = 1
	scryptSalt   = 16
	gcmNonceSize = 12
)

// PublicKey holds an RSA public key: shareable, encrypt-only capability
type PublicKey struct {
	rsa *rsa.PublicKey
}

// PrivateKey holds the passphrase-sealed private key material. The RSA key
// itself only exists in memory for the duration of an Unlock call.
type PrivateKey struct {
	salt   []byte
	nonce  []byte
	sealed []byte
}

// KeyPair couples a public key with its sealed private counterpart
type KeyPair struct {
	Public  *PublicKey
	Private *PrivateKey
}

// GenerateKeyPair produces a new RSA key pair with the private key sealed
// under the passphrase. Fails with WeakPassphrase when the passphrase does
// not satisfy the policy.
func GenerateKeyPair(passphrase string, policy PassphrasePolicy) (*KeyPair, error) {
	if err := policy.Validate(passphrase); err != nil {
		return nil, err
	}

	key, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return nil, fmt.Errorf("generating RSA key: %w", err)
	}

	sealed, err := sealPrivateKey(key, passphrase)
	if err != nil {
		return nil, err
	}

	return &KeyPair{
		Public:  &PublicKey{rsa: &key.PublicKey},
		Private: sealed,
	}, nil
}

func sealPrivateKey(key *rsa.PrivateKey, passphrase string) (*PrivateKey, error) {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("marshaling private key: %w", err)
	}

	salt := make([]byte, scryptSalt)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("reading random salt: %w", err)
	}

	gcm, err := passphraseGCM(passphrase, salt)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcmNonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("reading random nonce: %w", err)
	}

	return &PrivateKey{
		salt:   salt,
		nonce:  nonce,
		sealed: gcm.Seal(nil, nonce, der, nil),
	}, nil
}

// passphraseGCM derives an AES-256-GCM cipher from a passphrase via scrypt
func passphraseGCM(passphrase string, salt []byte) (cipher.AEAD, error) {
	aesKey, err := scrypt.Key([]byte(passphrase), salt, scryptN, scryptR, scryptP, 32)
	if err != nil {
		return nil, fmt.Errorf("deriving key from passphrase: %w", err)
	}
	block, err := aes.NewCipher(aesKey)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Unlock decrypts the private key material for the duration of one
// operation. Fails with BadPassphrase when the passphrase is wrong.
func (k *PrivateKey) Unlock(passphrase string) (*rsa.PrivateKey, error) {
	if k == nil || len(k.sealed) == 0 {
		return nil, core.ErrInvalidKey
	}

	gcm, err := passphraseGCM(passphrase, k.salt)
	if err != nil {
		return nil, err
	}

	der, err := gcm.Open(nil, k.nonce, k.sealed, nil)
	if err != nil {
		return nil, core.ErrBadPassphrase
	}

	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidKey, err)
	}
	rsaKey, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA key", core.ErrInvalidKey)
	}
	return rsaKey, nil
}

// Fingerprint identifies the public key without exposing it
func (k *PublicKey) Fingerprint() (core.KeyFingerprint, error) {
	der, err := x509.MarshalPKIXPublicKey(k.rsa)
	if err != nil {
		return "", fmt.Errorf("marshaling public key: %w", err)
	}
	return core.KeyFingerprint(core.NewHash(der)), nil
}

// MarshalPEM serializes the public key
func (k *PublicKey) MarshalPEM() ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(k.rsa)
	if err != nil {
		return nil, fmt.Errorf("marshaling public key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: publicKeyPEMType, Bytes: der}), nil
}

// ParsePublicKey reads a PEM-encoded public key
func ParsePublicKey(pemBytes []byte) (*PublicKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil || block.Type != publicKeyPEMType {
		return nil, fmt.Errorf("%w: expected %s PEM block", core.ErrInvalidKey, publicKeyPEMType)
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidKey, err)
	}
	rsaKey, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA key", core.ErrInvalidKey)
	}
	return &PublicKey{rsa: rsaKey}, nil
}

// MarshalPEM serializes the sealed private key. The payload is
// salt || nonce || AES-GCM(sealed PKCS#8 DER).
func (k *PrivateKey) MarshalPEM() []byte {
	payload := make([]byte, 0, len(k.salt)+len(k.nonce)+len(k.sealed))
	payload = append(payload, k.salt...)
	payload = append(payload, k.nonce...)
	payload = append(payload, k.sealed...)
	return pem.EncodeToMemory(&pem.Block{Type: privateKeyPEMType, Bytes: payload})
}

// ParsePrivateKey reads a PEM-encoded sealed private key
func ParsePrivateKey(pemBytes []byte) (*PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil || block.Type != privateKeyPEMType {
		return nil, fmt.Errorf("%w: expected %s PEM block", core.ErrInvalidKey, privateKeyPEMType)
	}
	if len(block.Bytes) <= scryptSalt+gcmNonceSize {
		return nil, fmt.Errorf("%w: truncated private key payload", core.ErrInvalidKey)
	}
	return &PrivateKey{
		salt:   block.Bytes[:scryptSalt],
		nonce:  block.Bytes[scryptSalt : scryptSalt+gcmNonceSize],
		sealed: block.Bytes[scryptSalt+gcmNonceSize:],
	}, nil
}

// WriteKeyPair persists both halves. The private key file is created with
// owner-only permissions.
func WriteKeyPair(pair *KeyPair, publicPath, privatePath string) error {
	publicPEM, err := pair.Public.MarshalPEM()
	if err != nil {
		return err
	}
	if err := os.WriteFile(publicPath, publicPEM, 0o644); err != nil {
		return fmt.Errorf("writing public key: %w", err)
	}
	if err := os.WriteFile(privatePath, pair.Private.MarshalPEM(), 0o600); err != nil {
		return fmt.Errorf("writing private key: %w", err)
	}
	return nil
}

// LoadPublicKey reads a public key from a PEM file
func LoadPublicKey(path string) (*PublicKey, error) {
	pemBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading public key file: %w", err)
	}
	return ParsePublicKey(pemBytes)
}

// LoadPrivateKey reads a sealed private key from a PEM file
func LoadPrivateKey(path string) (*PrivateKey, error) {
	pemBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading private key file: %w", err)
	}
	return ParsePrivateKey(pemBytes)
}
