// Package cryptox implements the client-side envelope encryption scheme for
// journal assets and entries.
//
// Every asset body is encrypted with a fresh random data-encryption key (DEK)
// under AES-256-GCM. The DEK itself is then wrapped (encrypted) under a
// longer-lived key-encryption key derived from the user's password, so the
// wrapped DEK can travel and be stored next to the ciphertext. The server only
// ever sees the five opaque metadata values; it never decrypts anything.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/dmitrijs2005/daybook/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	// DEKSize is the size of a data-encryption key (AES-256).
	DEKSize = 32
	// NonceSize is the AES-GCM nonce size.
	NonceSize = 12
	// TagSize is the AES-GCM authentication tag size.
	TagSize = 16
)

// DeriveKey derives a 32-byte key-encryption key from a password and salt
// using argon2id.
func DeriveKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
}

// MakeVerifier returns the value stored server-side to check a login key
// without the server ever holding the key itself.
func MakeVerifier(key []byte) []byte {
	hash := sha256.Sum256(key)
	return hash[:]
}

// GenerateDEK returns a fresh random data-encryption key.
func GenerateDEK() []byte {
	return common.GenerateRandByteArray(DEKSize)
}

// Seal encrypts plaintext with AES-256-GCM under key. The GCM tag is split
// off the ciphertext and returned separately, because the wire contract
// carries nonce and tag as individual metadata values.
func Seal(plaintext, key []byte) (ciphertext, nonce, tag []byte, err error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, nil, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, nil, err
	}

	nonce = common.GenerateRandByteArray(aesgcm.NonceSize())
	sealed := aesgcm.Seal(nil, nonce, plaintext, nil)

	split := len(sealed) - TagSize
	return sealed[:split], nonce, sealed[split:], nil
}

// Open reverses Seal. It fails if the key, nonce, tag or ciphertext do not
// match.
func Open(ciphertext, nonce, tag, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	return aesgcm.Open(nil, nonce, sealed, nil)
}

// WrapDEK encrypts a DEK under the key-encryption key.
func WrapDEK(dek, kek []byte) (wrapped, nonce, tag []byte, err error) {
	return Seal(dek, kek)
}

// UnwrapDEK recovers a DEK wrapped by WrapDEK.
func UnwrapDEK(wrapped, nonce, tag, kek []byte) ([]byte, error) {
	return Open(wrapped, nonce, tag, kek)
}

// AssetCipher is the result of envelope-encrypting one asset: the body
// ciphertext plus the five metadata values the server stores verbatim.
type AssetCipher struct {
	Ciphertext     []byte
	WrappedDEK     []byte
	DEKNonce       []byte
	DEKAuthTag     []byte
	ContentNonce   []byte
	ContentAuthTag []byte
}

// EncryptAsset performs the full envelope: generate a DEK, seal the body with
// it, wrap the DEK under kek. The raw DEK is wiped before returning.
func EncryptAsset(plaintext, kek []byte) (*AssetCipher, error) {
	dek := GenerateDEK()
	defer common.WipeByteArray(dek)

	ciphertext, contentNonce, contentTag, err := Seal(plaintext, dek)
	if err != nil {
		return nil, fmt.Errorf("seal body: %w", err)
	}

	wrapped, dekNonce, dekTag, err := WrapDEK(dek, kek)
	if err != nil {
		return nil, fmt.Errorf("wrap dek: %w", err)
	}

	return &AssetCipher{
		Ciphertext:     ciphertext,
		WrappedDEK:     wrapped,
		DEKNonce:       dekNonce,
		DEKAuthTag:     dekTag,
		ContentNonce:   contentNonce,
		ContentAuthTag: contentTag,
	}, nil
}

// DecryptAsset reverses EncryptAsset: unwrap the DEK under kek, then open the
// body with it.
func DecryptAsset(c *AssetCipher, kek []byte) ([]byte, error) {
	dek, err := UnwrapDEK(c.WrappedDEK, c.DEKNonce, c.DEKAuthTag, kek)
	if err != nil {
		return nil, fmt.Errorf("unwrap dek: %w", err)
	}
	defer common.WipeByteArray(dek)

	plaintext, err := Open(c.Ciphertext, c.ContentNonce, c.ContentAuthTag, dek)
	if err != nil {
		return nil, fmt.Errorf("open body: %w", err)
	}
	return plaintext, nil
}

// EncryptionMeta carries the five envelope values as opaque base64 strings.
// This is the exact form they take on the wire and in the assets table; the
// server must round-trip them byte-for-byte.
type EncryptionMeta struct {
	WrappedDEK     string `json:"wrappedDek"`
	DEKNonce       string `json:"dekNonce"`
	DEKAuthTag     string `json:"dekAuthTag"`
	ContentNonce   string `json:"contentNonce"`
	ContentAuthTag string `json:"contentAuthTag"`
}

// Complete reports whether all five values are present.
func (m EncryptionMeta) Complete() bool {
	return m.WrappedDEK != "" && m.DEKNonce != "" && m.DEKAuthTag != "" &&
		m.ContentNonce != "" && m.ContentAuthTag != ""
}

// Empty reports whether none of the five values are present.
func (m EncryptionMeta) Empty() bool {
	return m.WrappedDEK == "" && m.DEKNonce == "" && m.DEKAuthTag == "" &&
		m.ContentNonce == "" && m.ContentAuthTag == ""
}

// Meta encodes the cipher's metadata values to their wire form.
func (c *AssetCipher) Meta() EncryptionMeta {
	enc := base64.StdEncoding.EncodeToString
	return EncryptionMeta{
		WrappedDEK:     enc(c.WrappedDEK),
		DEKNonce:       enc(c.DEKNonce),
		DEKAuthTag:     enc(c.DEKAuthTag),
		ContentNonce:   enc(c.ContentNonce),
		ContentAuthTag: enc(c.ContentAuthTag),
	}
}

// DecodeMeta combines downloaded ciphertext with wire-form metadata back into
// an AssetCipher ready for DecryptAsset.
func DecodeMeta(ciphertext []byte, m EncryptionMeta) (*AssetCipher, error) {
	dec := base64.StdEncoding.DecodeString

	wrapped, err := dec(m.WrappedDEK)
	if err != nil {
		return nil, fmt.Errorf("wrapped dek: %w", err)
	}
	dekNonce, err := dec(m.DEKNonce)
	if err != nil {
		return nil, fmt.Errorf("dek nonce: %w", err)
	}
	dekTag, err := dec(m.DEKAuthTag)
	if err != nil {
		return nil, fmt.Errorf("dek auth tag: %w", err)
	}
	contentNonce, err := dec(m.ContentNonce)
	if err != nil {
		return nil, fmt.Errorf("content nonce: %w", err)
	}
	contentTag, err := dec(m.ContentAuthTag)
	if err != nil {
		return nil, fmt.Errorf("content auth tag: %w", err)
	}

	return &AssetCipher{
		Ciphertext:     ciphertext,
		WrappedDEK:     wrapped,
		DEKNonce:       dekNonce,
		DEKAuthTag:     dekTag,
		ContentNonce:   contentNonce,
		ContentAuthTag: contentTag,
	}, nil
}
