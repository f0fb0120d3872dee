// Package boc converts between cells and their base64 bag-of-cells form.
package boc

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/xssnick/tonutils-go/tvm/cell"
)

// Decode parses a base64 encoded bag of cells and returns its root cell.
func Decode(b64 string) (*cell.Cell, error) {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("cannot decode boc: base64 decode error: %w", err)
	}
	root, err := cell.FromBOC(data)
	if err != nil {
		return nil, fmt.Errorf("cannot decode boc: %w", err)
	}
	return root, nil
}

// Encode serializes c as a base64 bag of cells.
func Encode(c *cell.Cell) string {
	return base64.StdEncoding.EncodeToString(c.ToBOC())
}

// HashOf returns the hex encoded representation hash of c.
func HashOf(c *cell.Cell) string {
	return hex.EncodeToString(c.Hash())
}

// Hash returns the hex encoded representation hash of the root cell of a base64 bag of cells.
func Hash(b64 string) (string, error) {
	root, err := Decode(b64)
	if err != nil {
		return "", err
	}
	return HashOf(root), nil
}

// FromSlice copies the unread bits and refs of s into a new cell. s is consumed.
func FromSlice(s *cell.Slice) (*cell.Cell, error) {
	b := cell.BeginCell()
	if err := AppendSlice(b, s); err != nil {
		return nil, err
	}
	return b.EndCell(), nil
}

// AppendSlice stores the unread bits and refs of s into b. s is consumed.
func AppendSlice(b *cell.Builder, s *cell.Slice) error {
	if bits := s.BitsLeft(); bits > 0 {
		data, err := s.LoadSlice(bits)
		if err != nil {
			return err
		}
		if err := b.StoreSlice(data, bits); err != nil {
			return err
		}
	}
	for s.RefsNum() > 0 {
		ref, err := s.LoadRefCell()
		if err != nil {
			return err
		}
		if err := b.StoreRef(ref); err != nil {
			return err
		}
	}
	return nil
}
