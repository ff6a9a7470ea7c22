// Package tonproof builds and verifies ton_proof ownership signatures.
//
//	message = "ton-proof-item-v2/" || workchain (4 BE) || address hash (32)
//	          || len(domain) (4 LE) || domain || timestamp (8 LE) || payload
//	signed  = sha256(0xffff || "ton-connect" || sha256(message))
//
// The signature is Ed25519 over signed with the wallet key.
package tonproof

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tonbridge/internal/domain"
)

const (
	itemPrefix    = "ton-proof-item-v2/"
	connectPrefix = "ton-connect"
)

var ErrInvalidAddress = errors.New("invalid raw address")

// ParseRawAddress splits "<workchain>:<64 hex>" into its parts.
func ParseRawAddress(addr string) (int32, [32]byte, error) {
	var hash [32]byte
	wcStr, hashHex, ok := strings.Cut(addr, ":")
	if !ok {
		return 0, hash, fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
	}
	wc, err := strconv.ParseInt(wcStr, 10, 32)
	if err != nil {
		return 0, hash, fmt.Errorf("%w: workchain: %v", ErrInvalidAddress, err)
	}
	b, err := hex.DecodeString(hashHex)
	if err != nil || len(b) != len(hash) {
		return 0, hash, fmt.Errorf("%w: hash part of %q", ErrInvalidAddress, addr)
	}
	copy(hash[:], b)
	return int32(wc), hash, nil
}

// Message returns the bytes that are hashed and signed for a proof.
func Message(address, appDomain string, ts time.Time, payload string) ([]byte, error) {
	wc, hash, err := ParseRawAddress(address)
	if err != nil {
		return nil, err
	}
	msg := make([]byte, 0, len(itemPrefix)+4+32+4+len(appDomain)+8+len(payload))
	msg = append(msg, itemPrefix...)
	msg = binary.BigEndian.AppendUint32(msg, uint32(wc))
	msg = append(msg, hash[:]...)
	msg = binary.LittleEndian.AppendUint32(msg, uint32(len(appDomain)))
	msg = append(msg, appDomain...)
	msg = binary.LittleEndian.AppendUint64(msg, uint64(ts.Unix()))
	msg = append(msg, payload...)
	return msg, nil
}

func digest(msg []byte) []byte {
	inner := sha256.Sum256(msg)
	full := make([]byte, 0, 2+len(connectPrefix)+len(inner))
	full = append(full, 0xff, 0xff)
	full = append(full, connectPrefix...)
	full = append(full, inner[:]...)
	outer := sha256.Sum256(full)
	return outer[:]
}

// Sign produces the ton_proof for wallet at address.
func Sign(priv ed25519.PrivateKey, address, appDomain string, ts time.Time, payload string) (domain.TonProof, error) {
	msg, err := Message(address, appDomain, ts, payload)
	if err != nil {
		return domain.TonProof{}, err
	}
	sig := ed25519.Sign(priv, digest(msg))
	return domain.TonProof{
		Timestamp: ts.Unix(),
		Domain: domain.ProofDomain{
			LengthBytes: uint32(len(appDomain)),
			Value:       appDomain,
		},
		Signature: base64.StdEncoding.EncodeToString(sig),
		Payload:   payload,
	}, nil
}

// Verify checks proof against the wallet public key and address.
func Verify(pub ed25519.PublicKey, address string, proof domain.TonProof) bool {
	if int(proof.Domain.LengthBytes) != len(proof.Domain.Value) {
		return false
	}
	sig, err := base64.StdEncoding.DecodeString(proof.Signature)
	if err != nil {
		return false
	}
	msg, err := Message(address, proof.Domain.Value, time.Unix(proof.Timestamp, 0), proof.Payload)
	if err != nil {
		return false
	}
	return ed25519.Verify(pub, digest(msg), sig)
}
