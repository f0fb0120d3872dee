// Package payload recognizes well known message payloads.
package payload

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/xssnick/tonutils-go/tvm/cell"

	"github.com/everscale-go/tvm-abi/boc"
)

// Kind names a known payload.
type Kind string

// Comment is a plain text comment: a zero op followed by a snake encoded string.
const Comment Kind = "comment"

const (
	opBits    = 32
	commentOp = 0
)

// Known is a recognized payload.
type Known struct {
	Kind Kind
	// Text is set for comments.
	Text string
}

// MarshalJSON writes {"type", "data"}.
func (k *Known) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type Kind   `json:"type"`
		Data string `json:"data"`
	}{k.Kind, k.Text})
}

// Parse recognizes c. It reports false for payloads it does not know.
func Parse(c *cell.Cell) (*Known, bool) {
	s := c.BeginParse()
	op, err := s.LoadUInt(opBits)
	if err != nil || op != commentOp {
		return nil, false
	}
	text, err := loadSnake(s)
	if err != nil || !utf8.Valid(text) {
		return nil, false
	}
	return &Known{Kind: Comment, Text: string(text)}, true
}

// ParseBOC recognizes a base64 bag of cells.
func ParseBOC(b64 string) (*Known, bool, error) {
	c, err := boc.Decode(b64)
	if err != nil {
		return nil, false, err
	}
	known, ok := Parse(c)
	return known, ok, nil
}

func loadSnake(s *cell.Slice) ([]byte, error) {
	var res []byte
	for {
		bits := s.BitsLeft()
		if bits%8 != 0 {
			return nil, fmt.Errorf("snake cell holds %d bits", bits)
		}
		if bits > 0 {
			data, err := s.LoadSlice(bits)
			if err != nil {
				return nil, err
			}
			res = append(res, data...)
		}
		if s.RefsNum() == 0 {
			return res, nil
		}
		next, err := s.LoadRef()
		if err != nil {
			return nil, err
		}
		s = next
	}
}

// CommentCell builds a comment payload.
func CommentCell(text string) (*cell.Cell, error) {
	b := cell.BeginCell()
	if err := b.StoreUInt(commentOp, opBits); err != nil {
		return nil, err
	}
	if err := b.StoreStringSnake(text); err != nil {
		return nil, err
	}
	return b.EndCell(), nil
}
