package abi

import (
	"github.com/xssnick/tonutils-go/tvm/cell"

	"github.com/everscale-go/tvm-abi/address"
)

const (
	maxCellBits = 1023
	maxCellRefs = 4
	// The last reference of every cell is kept free for the continuation cell.
	maxDataRefs = maxCellRefs - 1

	functionIDBits    = 32
	signatureBits     = 512
	signatureSlotBits = 1 + signatureBits
	publicKeyBits     = 256
	arrayLengthBits   = 32
	snakeChunkBytes   = 127
	gramsLengthBits   = 4
)

// footprint is the largest size a value can take inside the cell it is stored in.
type footprint struct {
	bits int
	refs int
}

// itemFootprint returns the footprint of a single inline value of t. Tuples have no footprint of
// their own: their components are laid out one by one.
func itemFootprint(t Type) footprint {
	switch t.kind {
	case Bool:
		return footprint{bits: 1}
	case Int, Uint:
		return footprint{bits: t.bitSize}
	case Gram:
		return footprint{bits: gramsLengthBits + maxGrams}
	case Time:
		return footprint{bits: 64}
	case Expire:
		return footprint{bits: 32}
	case PublicKey:
		return footprint{bits: 1 + publicKeyBits}
	case Address:
		return footprint{bits: address.MaxBits}
	case Cell, Bytes, FixedBytes, String, Ref:
		return footprint{refs: 1}
	case Array:
		return footprint{bits: arrayLengthBits + 1, refs: 1}
	case FixedArray, Map, Optional:
		return footprint{bits: 1, refs: 1}
	default:
		panic("abi: no footprint for " + t.String())
	}
}

// chainWriter lays values out into a chain of cells. A value goes into the current cell while the
// footprints placed there fit in a cell; otherwise a new cell is started and becomes the last
// reference of the previous one. The decision only depends on the schema, so chainReader can
// replay it.
type chainWriter struct {
	builders []*cell.Builder
	bits     int
	refs     int
}

func newChainWriter(reservedBits int) *chainWriter {
	return &chainWriter{builders: []*cell.Builder{cell.BeginCell()}, bits: reservedBits}
}

func (w *chainWriter) next(fp footprint) *cell.Builder {
	if w.bits+fp.bits > maxCellBits || w.refs+fp.refs > maxDataRefs {
		w.builders = append(w.builders, cell.BeginCell())
		w.bits, w.refs = 0, 0
	}
	w.bits += fp.bits
	w.refs += fp.refs
	return w.builders[len(w.builders)-1]
}

func (w *chainWriter) finish() (*cell.Cell, error) {
	var next *cell.Cell
	for i := len(w.builders) - 1; i >= 0; i-- {
		b := w.builders[i]
		if next != nil {
			if err := b.StoreRef(next); err != nil {
				return nil, err
			}
		}
		next = b.EndCell()
	}
	return next, nil
}

type chainReader struct {
	slice *cell.Slice
	bits  int
	refs  int
}

func newChainReader(c *cell.Cell, reservedBits int) *chainReader {
	return &chainReader{slice: c.BeginParse(), bits: reservedBits}
}

func (r *chainReader) next(field string, fp footprint) (*cell.Slice, error) {
	if r.bits+fp.bits > maxCellBits || r.refs+fp.refs > maxDataRefs {
		if r.slice.BitsLeft() != 0 || r.slice.RefsNum() != 1 {
			return nil, decodeErrorf(field, "expected continuation cell, found %d bits and %d refs",
				r.slice.BitsLeft(), r.slice.RefsNum())
		}
		next, err := r.slice.LoadRef()
		if err != nil {
			return nil, decodeErrorf(field, "cannot load continuation cell: %v", err)
		}
		r.slice = next
		r.bits, r.refs = 0, 0
	}
	r.bits += fp.bits
	r.refs += fp.refs
	return r.slice, nil
}

func (r *chainReader) exhausted() bool {
	return r.slice.BitsLeft() == 0 && r.slice.RefsNum() == 0
}

func (r *chainReader) finish(allowPartial bool) error {
	if allowPartial || r.exhausted() {
		return nil
	}
	return decodeErrorf("", "%d bits and %d refs left unconsumed", r.slice.BitsLeft(), r.slice.RefsNum())
}

// snakeCell stores data in a chain of cells holding up to 127 bytes each.
func snakeCell(data []byte) (*cell.Cell, error) {
	if len(data) == 0 {
		return cell.BeginCell().EndCell(), nil
	}
	var next *cell.Cell
	chunks := (len(data) + snakeChunkBytes - 1) / snakeChunkBytes
	for i := chunks - 1; i >= 0; i-- {
		end := (i + 1) * snakeChunkBytes
		if end > len(data) {
			end = len(data)
		}
		part := data[i*snakeChunkBytes : end]
		b := cell.BeginCell()
		if err := b.StoreSlice(part, uint(len(part)*8)); err != nil {
			return nil, err
		}
		if next != nil {
			if err := b.StoreRef(next); err != nil {
				return nil, err
			}
		}
		next = b.EndCell()
	}
	return next, nil
}

func readSnake(field string, c *cell.Cell) ([]byte, error) {
	var res []byte
	for {
		s := c.BeginParse()
		bits := s.BitsLeft()
		if bits%8 != 0 {
			return nil, decodeErrorf(field, "byte chain cell holds %d bits", bits)
		}
		if bits > 0 {
			data, err := s.LoadSlice(bits)
			if err != nil {
				return nil, decodeErrorf(field, "%v", err)
			}
			res = append(res, data...)
		}
		switch s.RefsNum() {
		case 0:
			return res, nil
		case 1:
			next, err := s.LoadRefCell()
			if err != nil {
				return nil, decodeErrorf(field, "%v", err)
			}
			c = next
		default:
			return nil, decodeErrorf(field, "byte chain cell holds %d refs", s.RefsNum())
		}
	}
}
