package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tabguard/domain/core"
	"tabguard/domain/table"
)

const envelopeVersion = 1

// sealBytes encrypts a payload with the hybrid scheme: a fresh AES-256 key
// seals the payload under GCM, and RSA-OAEP wraps that key. Raw RSA cannot
// carry payloads larger than its modulus, so the symmetric layer is
// mandatory, and the fresh key plus fresh nonce make every ciphertext
// distinct even for identical plaintext.
//
// Envelope layout: version(1) || wrappedLen(2, big-endian) || wrappedKey ||
// nonce(12) || GCM(payload).
func sealBytes(pub *PublicKey, plaintext []byte) ([]byte, error) {
	if pub == nil || pub.rsa == nil {
		return nil, core.ErrInvalidKey
	}

	aesKey := make([]byte, 32)
	if _, err := rand.Read(aesKey); err != nil {
		return nil, fmt.Errorf("reading random AES key: %w", err)
	}

	block, err := aes.NewCipher(aesKey)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcmNonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("reading random nonce: %w", err)
	}

	wrapped, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub.rsa, aesKey, nil)
	if err != nil {
		return nil, fmt.Errorf("wrapping symmetric key: %w", err)
	}

	envelope := make([]byte, 0, 3+len(wrapped)+len(nonce)+len(plaintext)+gcm.Overhead())
	envelope = append(envelope, envelopeVersion)
	envelope = binary.BigEndian.AppendUint16(envelope, uint16(len(wrapped)))
	envelope = append(envelope, wrapped...)
	envelope = append(envelope, nonce...)
	envelope = gcm.Seal(envelope, nonce, plaintext, nil)
	return envelope, nil
}

// openBytes reverses sealBytes. Structural problems surface as
// CorruptCiphertext; a wrong private key also fails the OAEP or GCM check
// and is indistinguishable from corruption, by design.
func openBytes(priv *rsa.PrivateKey, envelope []byte) ([]byte, error) {
	if priv == nil {
		return nil, core.ErrInvalidKey
	}
	if len(envelope) < 3 {
		return nil, core.NewCorruptCiphertextError("envelope too short")
	}
	if envelope[0] != envelopeVersion {
		return nil, core.NewCorruptCiphertextError(
			fmt.Sprintf("unsupported envelope version %d", envelope[0]))
	}

	wrappedLen := int(binary.BigEndian.Uint16(envelope[1:3]))
	rest := envelope[3:]
	if len(rest) < wrappedLen+gcmNonceSize {
		return nil, core.NewCorruptCiphertextError("truncated envelope")
	}

	wrapped := rest[:wrappedLen]
	nonce := rest[wrappedLen : wrappedLen+gcmNonceSize]
	sealed := rest[wrappedLen+gcmNonceSize:]

	aesKey, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, priv, wrapped, nil)
	if err != nil {
		return nil, core.NewCorruptCiphertextError("cannot unwrap symmetric key")
	}

	block, err := aes.NewCipher(aesKey)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, core.NewCorruptCiphertextError("payload authentication failed")
	}
	return plaintext, nil
}

// EncryptCell seals one cell into a base64 ciphertext string
func EncryptCell(pub *PublicKey, cell table.Cell) (string, error) {
	envelope, err := sealBytes(pub, []byte(encodeCellPlain(cell)))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(envelope), nil
}

// DecryptCell reverses EncryptCell given an unlocked private key
func DecryptCell(priv *rsa.PrivateKey, ciphertext string) (table.Cell, error) {
	envelope, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return table.Cell{}, core.NewCorruptCiphertextError("invalid base64")
	}
	plaintext, err := openBytes(priv, envelope)
	if err != nil {
		return table.Cell{}, err
	}
	return decodeCellPlain(string(plaintext))
}

// encodeCellPlain serializes a cell with a kind prefix so decryption can
// restore the original tagged variant, missing markers included.
func encodeCellPlain(cell table.Cell) string {
	return string(cell.Kind) + ":" + cell.String()
}

func decodeCellPlain(s string) (table.Cell, error) {
	kind, payload, found := strings.Cut(s, ":")
	if !found {
		return table.Cell{}, core.NewCorruptCiphertextError("missing cell kind prefix")
	}
	switch table.CellKind(kind) {
	case table.KindNumeric:
		v, err := strconv.ParseFloat(payload, 64)
		if err != nil {
			return table.Cell{}, core.NewCorruptCiphertextError("invalid numeric payload")
		}
		return table.Numeric(v), nil
	case table.KindCategorical:
		return table.Categorical(payload), nil
	case table.KindDate:
		t, err := time.Parse("2006-01-02", payload)
		if err != nil {
			return table.Cell{}, core.NewCorruptCiphertextError("invalid date payload")
		}
		return table.Date(t), nil
	case table.KindText:
		return table.Text(payload), nil
	case table.KindMissing:
		return table.Missing(), nil
	default:
		return table.Cell{}, core.NewCorruptCiphertextError("unknown cell kind " + kind)
	}
}
