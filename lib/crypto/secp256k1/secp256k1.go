// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package secp256k1

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/ChainSafe/sealer/lib/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

const (
	// SignatureLength is the length of a recoverable [R || S || V] signature
	SignatureLength = 65
	// MessageLength is the expected length of a signed digest
	MessageLength = 32
	// PrivateKeyLength is the length of an encoded private key
	PrivateKeyLength = 32
)

var (
	// ErrInvalidMessageLength is returned when signing or recovering a digest that is not 32 bytes
	ErrInvalidMessageLength = errors.New("invalid message length")
	// ErrInvalidSignatureLength is returned when a signature is not 65 bytes
	ErrInvalidSignatureLength = errors.New("invalid signature length")
)

// Keypair is a secp256k1 key pair. It is the development implementation
// of the key management collaborator: it signs digests and reports the
// account address derived from its public key.
type Keypair struct {
	private *ecdsa.PrivateKey
	address common.Address
}

// NewKeypair returns a Keypair wrapping the given private key
func NewKeypair(pk *ecdsa.PrivateKey) *Keypair {
	return &Keypair{
		private: pk,
		address: common.Address(ethcrypto.PubkeyToAddress(pk.PublicKey)),
	}
}

// GenerateKeypair generates a new random Keypair
func GenerateKeypair() (*Keypair, error) {
	pk, err := ethcrypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}
	return NewKeypair(pk), nil
}

// NewKeypairFromHex decodes a 0x prefixed hex encoded private key
func NewKeypairFromHex(in string) (*Keypair, error) {
	pk, err := ethcrypto.HexToECDSA(strings.TrimPrefix(in, "0x"))
	if err != nil {
		return nil, fmt.Errorf("decoding private key: %w", err)
	}
	return NewKeypair(pk), nil
}

// Sign signs a 32-byte digest and returns a 65-byte recoverable signature
func (kp *Keypair) Sign(digest []byte) ([]byte, error) {
	if len(digest) != MessageLength {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMessageLength, len(digest))
	}
	return ethcrypto.Sign(digest, kp.private)
}

// Identity returns the address of the key pair
func (kp *Keypair) Identity() common.Address {
	return kp.address
}

// EncodePrivate returns the 0x prefixed hex encoding of the private key
func (kp *Keypair) EncodePrivate() string {
	return fmt.Sprintf("0x%x", ethcrypto.FromECDSA(kp.private))
}

// RecoverAddress returns the address that produced sig over digest
func RecoverAddress(digest, sig []byte) (common.Address, error) {
	if len(digest) != MessageLength {
		return common.EmptyAddress, fmt.Errorf("%w: %d", ErrInvalidMessageLength, len(digest))
	}
	if len(sig) != SignatureLength {
		return common.EmptyAddress, fmt.Errorf("%w: %d", ErrInvalidSignatureLength, len(sig))
	}

	pub, err := ethcrypto.SigToPub(digest, sig)
	if err != nil {
		return common.EmptyAddress, fmt.Errorf("recovering public key: %w", err)
	}
	return common.Address(ethcrypto.PubkeyToAddress(*pub)), nil
}
