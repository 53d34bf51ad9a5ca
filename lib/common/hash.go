// Copyright 2026 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package common

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	// HashLength is the expected length of the common.Hash type
	HashLength = 32
	// AddressLength is the expected length of the common.Address type
	AddressLength = 20
)

var (
	// EmptyHash is the zero hash. Votes use it as the nil sentinel.
	EmptyHash = Hash{}
	// EmptyAddress is the zero address.
	EmptyAddress = Address{}

	errNoHexPrefix = errors.New("could not byteify non 0x prefixed string")
)

// Hash used to store a blake2b hash
type Hash [HashLength]byte

// NewHash casts a byte array to a Hash
// if the input is longer than 32 bytes, it takes the first 32 bytes
func NewHash(in []byte) (res Hash) {
	copy(res[:], in)
	return res
}

// ToBytes turns a hash to a byte array
func (h Hash) ToBytes() []byte {
	b := [HashLength]byte(h)
	return b[:]
}

// IsEmpty returns true if the hash is empty, false otherwise.
func (h Hash) IsEmpty() bool {
	return h == EmptyHash
}

// String returns the hex string for the hash
func (h Hash) String() string {
	return fmt.Sprintf("0x%x", h[:])
}

// Short returns the first 4 bytes and the last 4 bytes of the hex string for the hash
func (h Hash) Short() string {
	const nBytes = 4
	return fmt.Sprintf("0x%x...%x", h[:nBytes], h[len(h)-nBytes:])
}

// MarshalJSON converts hash to hex data
func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

// UnmarshalJSON converts hex data to hash
func (h *Hash) UnmarshalJSON(data []byte) (err error) {
	*h, err = HexToHash(strings.Trim(string(data), "\""))
	return err
}

// HexToHash turns a 0x prefixed hex string into type Hash
func HexToHash(in string) (Hash, error) {
	out, err := decodeHex(in)
	if err != nil {
		return EmptyHash, err
	}
	return NewHash(out), nil
}

// MustHexToHash turns a 0x prefixed hex string into type Hash
// it panics if it cannot turn the string into a Hash
func MustHexToHash(in string) Hash {
	h, err := HexToHash(in)
	if err != nil {
		panic(err)
	}
	return h
}

// Address identifies an account: block authors, validators and voters.
type Address [AddressLength]byte

// BytesToAddress copies b into an address, cropping b from the left
// if it is longer than AddressLength.
func BytesToAddress(b []byte) (a Address) {
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
	return a
}

// HexToAddress turns a 0x prefixed hex string into an Address.
func HexToAddress(in string) (Address, error) {
	out, err := decodeHex(in)
	if err != nil {
		return EmptyAddress, err
	}
	if len(out) != AddressLength {
		return EmptyAddress, fmt.Errorf("address must be %d bytes, got %d", AddressLength, len(out))
	}
	return BytesToAddress(out), nil
}

// MustHexToAddress is like HexToAddress but panics on error.
func MustHexToAddress(in string) Address {
	a, err := HexToAddress(in)
	if err != nil {
		panic(err)
	}
	return a
}

// IsEmpty returns true for the zero address.
func (a Address) IsEmpty() bool {
	return a == EmptyAddress
}

// String returns the 0x prefixed hex string of the address
func (a Address) String() string {
	return fmt.Sprintf("0x%x", a[:])
}

// MarshalText implements encoding.TextMarshaler so addresses can be
// used in TOML and JSON configuration files.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) (err error) {
	*a, err = HexToAddress(string(text))
	return err
}

func decodeHex(in string) ([]byte, error) {
	if !strings.HasPrefix(in, "0x") {
		return nil, errNoHexPrefix
	}
	return hex.DecodeString(in[2:])
}
