/*
Package address provides the standard TVM message address (workchain id plus 32 byte account hash), its
raw "workchain:hex" and user-friendly string forms, and its cell serialization.
*/
package address

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// BytesSize is the size of an account hash in bytes.
const BytesSize = 32

// MaxBits is the serialized size of a standard address: tag, anycast bit, workchain and hash.
const MaxBits = 2 + 1 + 8 + BytesSize*8

const (
	tagNone = 0b00
	tagStd  = 0b10
)

// Address is a standard internal address.
type Address struct {
	Workchain int8
	Hash      [BytesSize]byte
}

// String returns the raw form of the address, e.g. "0:3333...".
func (a Address) String() string {
	return ToString(a)
}

// ToString converts an address to its raw "workchain:hex" form.
func ToString(a Address) string {
	return strconv.Itoa(int(a.Workchain)) + ":" + hex.EncodeToString(a.Hash[:])
}

// UserFriendly returns the base64url form with flags and checksum.
func (a Address) UserFriendly(bounceable, testnet bool) string {
	addr := address.NewAddress(0, byte(a.Workchain), a.Hash[:])
	addr.SetBounce(bounceable)
	addr.SetTestnetOnly(testnet)
	return addr.String()
}

// FromString converts either a raw "workchain:hex" or a user-friendly address string to an Address.
func FromString(s string) (Address, error) {
	if wc, hash, ok := strings.Cut(s, ":"); ok {
		workchain, err := strconv.ParseInt(wc, 10, 8)
		if err != nil {
			return Address{}, fmt.Errorf("cannot cast address string (%s) to address: bad workchain: %w", s, err)
		}
		decoded, err := hex.DecodeString(hash)
		if err != nil {
			return Address{}, fmt.Errorf("cannot cast address string (%s) to address: hex decode error: %w", s, err)
		}
		if len(decoded) != BytesSize {
			return Address{}, fmt.Errorf(
				"cannot cast address string (%s) to address: decoded byte length should equal %d",
				s, BytesSize,
			)
		}
		res := Address{Workchain: int8(workchain)}
		copy(res.Hash[:], decoded)
		return res, nil
	}

	parsed, err := address.ParseAddr(s)
	if err != nil {
		return Address{}, fmt.Errorf("cannot cast address string (%s) to address: %w", s, err)
	}
	res := Address{Workchain: int8(parsed.Workchain())}
	copy(res.Hash[:], parsed.Data())
	return res, nil
}

// Store writes addr into b as addr_std, or addr_none when addr is nil.
func Store(b *cell.Builder, addr *Address) error {
	if addr == nil {
		return b.StoreUInt(tagNone, 2)
	}
	if err := b.StoreUInt(tagStd, 2); err != nil {
		return err
	}
	// no anycast
	if err := b.StoreBoolBit(false); err != nil {
		return err
	}
	if err := b.StoreInt(int64(addr.Workchain), 8); err != nil {
		return err
	}
	return b.StoreSlice(addr.Hash[:], BytesSize*8)
}

// Load reads an addr_none or addr_std from s. addr_none yields nil.
func Load(s *cell.Slice) (*Address, error) {
	tag, err := s.LoadUInt(2)
	if err != nil {
		return nil, fmt.Errorf("cannot load address tag: %w", err)
	}
	switch tag {
	case tagNone:
		return nil, nil
	case tagStd:
	default:
		return nil, fmt.Errorf("unsupported address tag %02b", tag)
	}
	anycast, err := s.LoadBoolBit()
	if err != nil {
		return nil, fmt.Errorf("cannot load address anycast: %w", err)
	}
	if anycast {
		return nil, fmt.Errorf("anycast addresses are not supported")
	}
	wc, err := s.LoadInt(8)
	if err != nil {
		return nil, fmt.Errorf("cannot load address workchain: %w", err)
	}
	hash, err := s.LoadSlice(BytesSize * 8)
	if err != nil {
		return nil, fmt.Errorf("cannot load address hash: %w", err)
	}
	res := &Address{Workchain: int8(wc)}
	copy(res.Hash[:], hash)
	return res, nil
}
