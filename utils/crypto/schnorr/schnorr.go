// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package schnorr wraps the secp256k1 Schnorr signature scheme used by stake
// proofs and delegations. Public keys are handled in their 33 byte compressed
// form so they can be compared and used as map keys.
package schnorr

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/schnorr"

	"github.com/ava-labs/preconsensus/utils/hashing"
)

const (
	PrivateKeyLen = secp256k1.PrivKeyBytesLen
	PublicKeyLen  = secp256k1.PubKeyBytesLenCompressed
	SignatureLen  = schnorr.SignatureSize
)

var (
	ErrInvalidPrivateKeyLen = errors.New("invalid private key length")
	ErrInvalidPublicKeyLen  = errors.New("invalid public key length")
	ErrInvalidSignatureLen  = errors.New("invalid signature length")
)

type PrivateKey struct {
	sk *secp256k1.PrivateKey
	pk PublicKey
}

// PublicKey is a compressed secp256k1 point.
type PublicKey [PublicKeyLen]byte

// Signature is a serialized Schnorr signature.
type Signature [SignatureLen]byte

// NewPrivateKey generates a new random key.
func NewPrivateKey() (*PrivateKey, error) {
	sk, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	return newPrivateKey(sk), nil
}

// ToPrivateKey parses a 32 byte scalar.
func ToPrivateKey(b []byte) (*PrivateKey, error) {
	if len(b) != PrivateKeyLen {
		return nil, fmt.Errorf("%w: expected %d bytes but got %d", ErrInvalidPrivateKeyLen, PrivateKeyLen, len(b))
	}
	return newPrivateKey(secp256k1.PrivKeyFromBytes(b)), nil
}

// TestKey deterministically derives a key from [seed]. Only intended for
// tests and simulations.
func TestKey(seed uint64) *PrivateKey {
	var b [8]byte
	for i := range b {
		b[i] = byte(seed >> (8 * i))
	}
	return newPrivateKey(secp256k1.PrivKeyFromBytes(hashing.ComputeHash256(b[:])))
}

func newPrivateKey(sk *secp256k1.PrivateKey) *PrivateKey {
	k := &PrivateKey{sk: sk}
	copy(k.pk[:], sk.PubKey().SerializeCompressed())
	return k
}

func (k *PrivateKey) PublicKey() PublicKey {
	return k.pk
}

func (k *PrivateKey) Bytes() []byte {
	return k.sk.Serialize()
}

// SignHash signs a 32 byte digest.
func (k *PrivateKey) SignHash(hash []byte) (Signature, error) {
	sig, err := schnorr.Sign(k.sk, hash)
	if err != nil {
		return Signature{}, err
	}
	var s Signature
	copy(s[:], sig.Serialize())
	return s, nil
}

// ToPublicKey parses a compressed public key.
func ToPublicKey(b []byte) (PublicKey, error) {
	var pk PublicKey
	if len(b) != PublicKeyLen {
		return pk, fmt.Errorf("%w: expected %d bytes but got %d", ErrInvalidPublicKeyLen, PublicKeyLen, len(b))
	}
	if _, err := secp256k1.ParsePubKey(b); err != nil {
		return pk, err
	}
	copy(pk[:], b)
	return pk, nil
}

// VerifyHash reports whether [sig] is a valid signature of [hash] by this key.
// Malformed keys and signatures never verify.
func (k PublicKey) VerifyHash(hash []byte, sig Signature) bool {
	pk, err := secp256k1.ParsePubKey(k[:])
	if err != nil {
		return false
	}
	s, err := schnorr.ParseSignature(sig[:])
	if err != nil {
		return false
	}
	return s.Verify(hash, pk)
}

func (k PublicKey) Bytes() []byte {
	return k[:]
}

func (k PublicKey) String() string {
	return hex.EncodeToString(k[:])
}

// ToSignature copies a serialized signature.
func ToSignature(b []byte) (Signature, error) {
	var s Signature
	if len(b) != SignatureLen {
		return s, fmt.Errorf("%w: expected %d bytes but got %d", ErrInvalidSignatureLen, SignatureLen, len(b))
	}
	copy(s[:], b)
	return s, nil
}
