// Package message builds contract call bodies and external inbound messages.
package message

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/xssnick/tonutils-go/tvm/cell"

	"github.com/everscale-go/tvm-abi/abi"
	"github.com/everscale-go/tvm-abi/address"
	"github.com/everscale-go/tvm-abi/boc"
)

// Message is a sendable external inbound message.
type Message struct {
	Destination address.Address
	// StateInit is attached to the envelope when set.
	StateInit *StateInit
	Header    []abi.Token
	Body      *cell.Cell
	ExpireAt  uint32
}

// ext_in_msg_info$10
const extInMsgInfoTag = 0b10

// Cell serializes the message envelope with its state init and body.
func (m *Message) Cell() (*cell.Cell, error) {
	b := cell.BeginCell()
	if err := b.StoreUInt(extInMsgInfoTag, 2); err != nil {
		return nil, err
	}
	// src:addr_none
	if err := address.Store(b, nil); err != nil {
		return nil, err
	}
	dst := m.Destination
	if err := address.Store(b, &dst); err != nil {
		return nil, err
	}
	// import_fee:Grams
	if err := b.StoreCoins(0); err != nil {
		return nil, err
	}

	if m.StateInit == nil {
		if err := b.StoreBoolBit(false); err != nil {
			return nil, err
		}
	} else {
		si, err := m.StateInit.Cell()
		if err != nil {
			return nil, fmt.Errorf("cannot serialize state init: %w", err)
		}
		// just$1 (right$1 ^StateInit)
		if err := b.StoreUInt(0b11, 2); err != nil {
			return nil, err
		}
		if err := b.StoreRef(si); err != nil {
			return nil, err
		}
	}

	// body:(right$1 ^Cell)
	if err := b.StoreBoolBit(true); err != nil {
		return nil, err
	}
	if err := b.StoreRef(m.Body); err != nil {
		return nil, err
	}
	return b.EndCell(), nil
}

// Hash returns the hex encoded hash of the serialized message.
func (m *Message) Hash() (string, error) {
	c, err := m.Cell()
	if err != nil {
		return "", err
	}
	return boc.HashOf(c), nil
}

// MarshalJSON writes {"hash", "expireAt", "boc"}.
func (m *Message) MarshalJSON() ([]byte, error) {
	c, err := m.Cell()
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		Hash     string `json:"hash"`
		ExpireAt uint32 `json:"expireAt"`
		Boc      string `json:"boc"`
	}{boc.HashOf(c), m.ExpireAt, boc.Encode(c)})
}

// Signer signs the hash of an unsigned message. Key management is up to the implementation.
type Signer interface {
	Sign(hash []byte) ([]byte, error)
}

// UnsignedMessage is an external message waiting for its signature. It cannot be sent as is: Complete
// turns it into a Message.
type UnsignedMessage struct {
	Destination address.Address
	ExpireAt    uint32
	Header      []abi.Token
	StateInit   *StateInit
	PublicKey   ed25519.PublicKey

	payload *cell.Cell
}

// Payload returns the unsigned body.
func (u *UnsignedMessage) Payload() *cell.Cell { return u.payload }

// Hash returns the hash the signature is computed over.
func (u *UnsignedMessage) Hash() []byte { return u.payload.Hash() }

// Complete attaches signature and returns the sendable message. The signature must be a valid
// ed25519 signature of Hash by PublicKey.
func (u *UnsignedMessage) Complete(signature []byte) (*Message, error) {
	if len(signature) != ed25519.SignatureSize {
		return nil, fmt.Errorf("signature must be %d bytes, got %d", ed25519.SignatureSize, len(signature))
	}
	if len(u.PublicKey) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key must be %d bytes, got %d", ed25519.PublicKeySize, len(u.PublicKey))
	}
	if !ed25519.Verify(u.PublicKey, u.Hash(), signature) {
		return nil, fmt.Errorf("signature does not match public key %s", hex.EncodeToString(u.PublicKey))
	}
	body, err := abi.AttachSignature(u.payload, signature)
	if err != nil {
		return nil, err
	}
	return &Message{
		Destination: u.Destination,
		StateInit:   u.StateInit,
		Header:      u.Header,
		Body:        body,
		ExpireAt:    u.ExpireAt,
	}, nil
}

// Sign completes the message with a signature produced by s.
func (u *UnsignedMessage) Sign(s Signer) (*Message, error) {
	signature, err := s.Sign(u.Hash())
	if err != nil {
		return nil, fmt.Errorf("cannot sign message: %w", err)
	}
	return u.Complete(signature)
}

// MarshalJSON writes {"address", "expireAt", "hash"}.
func (u *UnsignedMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Address  string `json:"address"`
		ExpireAt uint32 `json:"expireAt"`
		Hash     string `json:"hash"`
	}{u.Destination.String(), u.ExpireAt, hex.EncodeToString(u.Hash())})
}
