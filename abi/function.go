package abi

import (
	"crypto/ed25519"
	"fmt"
	"math"

	"github.com/xssnick/tonutils-go/tvm/cell"

	"github.com/everscale-go/tvm-abi/boc"
)

var idFootprint = footprint{bits: functionIDBits}

// ReadFunctionID reads the 32-bit id that prefixes internal bodies, answers and events.
func ReadFunctionID(body *cell.Cell) (uint32, error) {
	id, err := body.BeginParse().LoadUInt(functionIDBits)
	if err != nil {
		return 0, decodeErrorf("", "cannot read function id: %v", err)
	}
	return uint32(id), nil
}

func writeID(w *chainWriter, id uint32) error {
	return w.next(idFootprint).StoreUInt(uint64(id), functionIDBits)
}

func readID(r *chainReader) (uint32, error) {
	s, err := r.next("", idFootprint)
	if err != nil {
		return 0, err
	}
	id, err := s.LoadUInt(functionIDBits)
	if err != nil {
		return 0, decodeErrorf("", "cannot read function id: %v", err)
	}
	return uint32(id), nil
}

func expectID(r *chainReader, want uint32) error {
	id, err := readID(r)
	if err != nil {
		return err
	}
	if id != want {
		return decodeErrorf("", "wrong function id: expected 0x%08x, found 0x%08x", want, id)
	}
	return nil
}

// encodeWithID lays out id followed by tokens checked against params.
func encodeWithID(id uint32, params []Param, tokens []Token) (*cell.Cell, error) {
	if err := matchTokens(params, tokens); err != nil {
		return nil, err
	}
	w := newChainWriter(0)
	if err := writeID(w, id); err != nil {
		return nil, err
	}
	if err := writeTokens(w, "", tokens); err != nil {
		return nil, err
	}
	return w.finish()
}

func decodeWithID(id uint32, params []Param, body *cell.Cell) ([]Token, error) {
	r := newChainReader(body, 0)
	if err := expectID(r, id); err != nil {
		return nil, err
	}
	tokens, err := readParams(r, "", params)
	if err != nil {
		return nil, err
	}
	if err := r.finish(false); err != nil {
		return nil, err
	}
	return tokens, nil
}

// EncodeInternalInput builds the body of an internal call: the input id followed by the inputs.
func (f *Function) EncodeInternalInput(inputs []Token) (*cell.Cell, error) {
	return encodeWithID(f.InputID, f.Inputs, inputs)
}

// MakeHeader builds header tokens in contract order from values keyed by header param name. A
// missing pubkey is absent and a missing expire never expires; any other header param is required.
func (f *Function) MakeHeader(values map[string]Value) ([]Token, error) {
	tokens := make([]Token, 0, len(f.Header))
	for _, p := range f.Header {
		v, ok := values[p.Name]
		if !ok {
			switch p.Type.kind {
			case PublicKey:
				v = PublicKeyValue{}
			case Expire:
				v = ExpireValue(math.MaxUint32)
			default:
				return nil, schemaErrorf(p.Name, "missing header value")
			}
		}
		token, err := NewToken(p, v)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, nil
}

// EncodeExternalPayload builds the unsigned body of an external call: header, input id and inputs.
// The layout keeps room in the root cell for the signature that AttachSignature adds in front.
func (f *Function) EncodeExternalPayload(header, inputs []Token) (*cell.Cell, error) {
	if err := matchTokens(f.Header, header); err != nil {
		return nil, err
	}
	if err := matchTokens(f.Inputs, inputs); err != nil {
		return nil, err
	}
	w := newChainWriter(signatureSlotBits)
	if err := writeTokens(w, "", header); err != nil {
		return nil, err
	}
	if err := writeID(w, f.InputID); err != nil {
		return nil, err
	}
	if err := writeTokens(w, "", inputs); err != nil {
		return nil, err
	}
	return w.finish()
}

// AttachSignature prepends the signature slot to an unsigned payload. A nil signature marks the body
// as unsigned.
func AttachSignature(payload *cell.Cell, signature []byte) (*cell.Cell, error) {
	if signature != nil && len(signature) != ed25519.SignatureSize {
		return nil, fmt.Errorf("signature must be %d bytes, got %d", ed25519.SignatureSize, len(signature))
	}
	b := cell.BeginCell()
	if err := b.StoreBoolBit(signature != nil); err != nil {
		return nil, err
	}
	if signature != nil {
		if err := b.StoreSlice(signature, signatureBits); err != nil {
			return nil, err
		}
	}

	if err := boc.AppendSlice(b, payload.BeginParse()); err != nil {
		return nil, fmt.Errorf("cannot attach signature: %w", err)
	}
	return b.EndCell(), nil
}

// EncodeExternalInput builds a complete external call body.
func (f *Function) EncodeExternalInput(header, inputs []Token, signature []byte) (*cell.Cell, error) {
	payload, err := f.EncodeExternalPayload(header, inputs)
	if err != nil {
		return nil, err
	}
	return AttachSignature(payload, signature)
}

// ExternalInput is a decoded external call body.
type ExternalInput struct {
	// Signature is nil for unsigned bodies.
	Signature []byte
	Header    []Token
	Input     []Token
}

func readSignature(r *chainReader) ([]byte, error) {
	signed, err := r.slice.LoadBoolBit()
	if err != nil {
		return nil, decodeErrorf("", "cannot read signature flag: %v", err)
	}
	if !signed {
		return nil, nil
	}
	signature, err := r.slice.LoadSlice(signatureBits)
	if err != nil {
		return nil, decodeErrorf("", "cannot read signature: %v", err)
	}
	return signature, nil
}

// DecodeExternalInput reads an external call body built by EncodeExternalInput.
func (f *Function) DecodeExternalInput(body *cell.Cell) (*ExternalInput, error) {
	r := newChainReader(body, signatureSlotBits)
	signature, err := readSignature(r)
	if err != nil {
		return nil, err
	}
	header, err := readParams(r, "", f.Header)
	if err != nil {
		return nil, err
	}
	if err := expectID(r, f.InputID); err != nil {
		return nil, err
	}
	input, err := readParams(r, "", f.Inputs)
	if err != nil {
		return nil, err
	}
	if err := r.finish(false); err != nil {
		return nil, err
	}
	return &ExternalInput{Signature: signature, Header: header, Input: input}, nil
}

// DecodeInput reads the inputs of an internal or external call body.
func (f *Function) DecodeInput(body *cell.Cell, internal bool) ([]Token, error) {
	if internal {
		return decodeWithID(f.InputID, f.Inputs, body)
	}
	in, err := f.DecodeExternalInput(body)
	if err != nil {
		return nil, err
	}
	return in.Input, nil
}

// EncodeOutput builds an answer body: the output id followed by the outputs.
func (f *Function) EncodeOutput(outputs []Token) (*cell.Cell, error) {
	return encodeWithID(f.OutputID, f.Outputs, outputs)
}

// EncodeOutputFrom builds an answer body carrying the outputs starting at index start. Answers split
// this way are reassembled by ProcessRawOutputs.
func (f *Function) EncodeOutputFrom(start int, outputs []Token) (*cell.Cell, error) {
	if start < 0 || start+len(outputs) > len(f.Outputs) {
		return nil, schemaErrorf("", "outputs %d..%d out of range", start, start+len(outputs))
	}
	return encodeWithID(f.OutputID, f.Outputs[start:start+len(outputs)], outputs)
}

// DecodeOutput reads an answer body carrying every output.
func (f *Function) DecodeOutput(body *cell.Cell) ([]Token, error) {
	return decodeWithID(f.OutputID, f.Outputs, body)
}

// ProcessRawOutputs reassembles the outputs of f from answer bodies, in order. Bodies with another id
// are skipped; each matching body carries the next outputs.
func (f *Function) ProcessRawOutputs(bodies []*cell.Cell) ([]Token, error) {
	outputs := make([]Token, 0, len(f.Outputs))
	if len(f.Outputs) == 0 {
		return outputs, nil
	}
	for _, body := range bodies {
		id, err := ReadFunctionID(body)
		if err != nil || id != f.OutputID {
			continue
		}
		r := newChainReader(body, 0)
		if _, err := readID(r); err != nil {
			return nil, err
		}
		tokens, err := readAvailable(r, f.Outputs[len(outputs):])
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, tokens...)
		if len(outputs) == len(f.Outputs) {
			return outputs, nil
		}
	}
	return nil, decodeErrorf("", "expected %d outputs of %q, found %d", len(f.Outputs), f.Name, len(outputs))
}

// EncodeInput builds an event body: the event id followed by the inputs.
func (e *Event) EncodeInput(inputs []Token) (*cell.Cell, error) {
	return encodeWithID(e.ID, e.Inputs, inputs)
}

// DecodeInput reads an event body.
func (e *Event) DecodeInput(body *cell.Cell) ([]Token, error) {
	return decodeWithID(e.ID, e.Inputs, body)
}
