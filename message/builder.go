package message

import (
	"crypto/ed25519"
	"fmt"
	"math"

	"github.com/everscale-go/tvm-abi/abi"
	"github.com/everscale-go/tvm-abi/address"
	"github.com/everscale-go/tvm-abi/boc"
	"github.com/everscale-go/tvm-abi/clock"
)

// Builder creates external messages. Every message reads the shared clock exactly once, so its time
// and expire headers come from the same instant.
type Builder struct {
	Clock clock.Clock
}

// NewBuilder returns a Builder reading c.
func NewBuilder(c clock.Clock) *Builder {
	return &Builder{Clock: c}
}

func (b *Builder) header(fn *abi.Function, publicKey ed25519.PublicKey, timeout uint32) ([]abi.Token, uint32, error) {
	now := b.Clock.Now()
	if now.Unix() < 0 || now.Unix()+int64(timeout) > math.MaxUint32 {
		return nil, 0, fmt.Errorf("expiration time %d + %d does not fit in 32 bits", now.Unix(), timeout)
	}
	expireAt := uint32(now.Unix()) + timeout
	header, err := fn.MakeHeader(map[string]abi.Value{
		"time":   abi.TimeValue(now.UnixMilli()),
		"expire": abi.ExpireValue(expireAt),
		"pubkey": abi.PublicKeyValue{Key: publicKey},
	})
	if err != nil {
		return nil, 0, err
	}
	return header, expireAt, nil
}

// CreateExternalMessageWithoutSignature builds a message for a contract that accepts unsigned calls.
// The pubkey header is absent and the body carries no signature.
func (b *Builder) CreateExternalMessageWithoutSignature(dst address.Address, fn *abi.Function, stateInit *StateInit, inputs []abi.Token, timeout uint32) (*Message, error) {
	header, expireAt, err := b.header(fn, nil, timeout)
	if err != nil {
		return nil, err
	}
	body, err := fn.EncodeExternalInput(header, inputs, nil)
	if err != nil {
		return nil, err
	}
	return &Message{
		Destination: dst,
		StateInit:   stateInit,
		Header:      header,
		Body:        body,
		ExpireAt:    expireAt,
	}, nil
}

// CreateExternalMessage builds an unsigned message carrying publicKey in its header. The result must
// be completed with a signature before it can be sent.
func (b *Builder) CreateExternalMessage(dst address.Address, fn *abi.Function, stateInit *StateInit, inputs []abi.Token, publicKey ed25519.PublicKey, timeout uint32) (*UnsignedMessage, error) {
	if len(publicKey) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key must be %d bytes, got %d", ed25519.PublicKeySize, len(publicKey))
	}
	header, expireAt, err := b.header(fn, publicKey, timeout)
	if err != nil {
		return nil, err
	}
	payload, err := fn.EncodeExternalPayload(header, inputs)
	if err != nil {
		return nil, err
	}
	return &UnsignedMessage{
		Destination: dst,
		ExpireAt:    expireAt,
		Header:      header,
		StateInit:   stateInit,
		PublicKey:   publicKey,
		payload:     payload,
	}, nil
}

// EncodeInternalInput returns the base64 bag of cells of an internal call body.
func EncodeInternalInput(fn *abi.Function, inputs []abi.Token) (string, error) {
	body, err := fn.EncodeInternalInput(inputs)
	if err != nil {
		return "", err
	}
	return boc.Encode(body), nil
}
