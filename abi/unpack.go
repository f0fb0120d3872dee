package abi

import (
	"crypto/ed25519"
	"errors"
	"sort"
	"unicode/utf8"

	"github.com/xssnick/tonutils-go/tvm/cell"

	"github.com/everscale-go/tvm-abi/address"
)

// Unpack reads params from a cell chain laid out by Pack. Unless allowPartial is set, the chain must
// hold nothing beyond the params.
func Unpack(params []Param, c *cell.Cell, allowPartial bool) ([]Token, error) {
	r := newChainReader(c, 0)
	tokens, err := readParams(r, "", params)
	if err != nil {
		return nil, err
	}
	if err := r.finish(allowPartial); err != nil {
		return nil, err
	}
	return tokens, nil
}

func readParams(r *chainReader, path string, params []Param) ([]Token, error) {
	tokens := make([]Token, 0, len(params))
	for _, p := range params {
		v, err := readValue(r, joinField(path, p.Name), p.Type)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, Token{Name: p.Name, Type: p.Type, Value: v})
	}
	return tokens, nil
}

// readAvailable reads params until the chain runs out of data.
func readAvailable(r *chainReader, params []Param) ([]Token, error) {
	tokens := make([]Token, 0, len(params))
	for _, p := range params {
		if r.exhausted() {
			break
		}
		v, err := readValue(r, p.Name, p.Type)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, Token{Name: p.Name, Type: p.Type, Value: v})
	}
	return tokens, nil
}

func readValue(r *chainReader, field string, t Type) (Value, error) {
	if t.kind == Tuple {
		components, err := readParams(r, field, t.fields)
		if err != nil {
			return nil, err
		}
		return TupleValue(components), nil
	}
	s, err := r.next(field, itemFootprint(t))
	if err != nil {
		return nil, err
	}
	return loadValue(s, field, t)
}

func unpackValue(field string, t Type, c *cell.Cell) (Value, error) {
	r := newChainReader(c, 0)
	v, err := readValue(r, field, t)
	if err != nil {
		return nil, err
	}
	if err := r.finish(false); err != nil {
		var decodeErr *DecodeError
		if errors.As(err, &decodeErr) {
			decodeErr.Field = field
		}
		return nil, err
	}
	return v, nil
}

func loadValue(s *cell.Slice, field string, t Type) (Value, error) {
	switch t.kind {
	case Bool:
		v, err := s.LoadBoolBit()
		if err != nil {
			return nil, decodeErrorf(field, "%v", err)
		}
		return BoolValue(v), nil
	case Int:
		v, err := s.LoadBigInt(uint(t.bitSize))
		if err != nil {
			return nil, decodeErrorf(field, "%v", err)
		}
		return IntValue{Int: v}, nil
	case Uint:
		v, err := s.LoadBigUInt(uint(t.bitSize))
		if err != nil {
			return nil, decodeErrorf(field, "%v", err)
		}
		return IntValue{Int: v}, nil
	case Gram:
		v, err := s.LoadBigCoins()
		if err != nil {
			return nil, decodeErrorf(field, "%v", err)
		}
		return IntValue{Int: v}, nil
	case Time:
		v, err := s.LoadUInt(64)
		if err != nil {
			return nil, decodeErrorf(field, "%v", err)
		}
		return TimeValue(v), nil
	case Expire:
		v, err := s.LoadUInt(32)
		if err != nil {
			return nil, decodeErrorf(field, "%v", err)
		}
		return ExpireValue(v), nil
	case Address:
		v, err := address.Load(s)
		if err != nil {
			return nil, decodeErrorf(field, "%v", err)
		}
		return AddressValue{Address: v}, nil
	case Cell:
		v, err := s.LoadRefCell()
		if err != nil {
			return nil, decodeErrorf(field, "%v", err)
		}
		return CellValue{Cell: v}, nil
	case Bytes, FixedBytes, String:
		c, err := s.LoadRefCell()
		if err != nil {
			return nil, decodeErrorf(field, "%v", err)
		}
		data, err := readSnake(field, c)
		if err != nil {
			return nil, err
		}
		switch t.kind {
		case String:
			if !utf8.Valid(data) {
				return nil, decodeErrorf(field, "string is not valid UTF-8")
			}
			return StringValue(data), nil
		case FixedBytes:
			if len(data) != t.length {
				return nil, decodeErrorf(field, "expected %d bytes, found %d", t.length, len(data))
			}
		}
		return BytesValue(data), nil
	case PublicKey:
		present, err := s.LoadBoolBit()
		if err != nil {
			return nil, decodeErrorf(field, "%v", err)
		}
		if !present {
			return PublicKeyValue{}, nil
		}
		key, err := s.LoadSlice(publicKeyBits)
		if err != nil {
			return nil, decodeErrorf(field, "%v", err)
		}
		return PublicKeyValue{Key: ed25519.PublicKey(key)}, nil
	case Array:
		length, err := s.LoadUInt(arrayLengthBits)
		if err != nil {
			return nil, decodeErrorf(field, "%v", err)
		}
		return loadArrayDict(s, field, t.childTypes[0], int(length))
	case FixedArray:
		return loadArrayDict(s, field, t.childTypes[0], t.length)
	case Map:
		return loadMap(s, field, t)
	case Optional:
		present, err := s.LoadBoolBit()
		if err != nil {
			return nil, decodeErrorf(field, "%v", err)
		}
		if !present {
			return OptionalValue{}, nil
		}
		c, err := s.LoadRefCell()
		if err != nil {
			return nil, decodeErrorf(field, "%v", err)
		}
		inner, err := unpackValue(field, t.childTypes[0], c)
		if err != nil {
			return nil, err
		}
		return OptionalValue{Value: inner}, nil
	case Ref:
		c, err := s.LoadRefCell()
		if err != nil {
			return nil, decodeErrorf(field, "%v", err)
		}
		inner, err := unpackValue(field, t.childTypes[0], c)
		if err != nil {
			return nil, err
		}
		return RefValue{Value: inner}, nil
	default:
		return nil, decodeErrorf(field, "unsupported type %s", t)
	}
}

func loadDict(s *cell.Slice, field string, keyBits uint) ([]cell.DictKV, error) {
	present, err := s.LoadBoolBit()
	if err != nil {
		return nil, decodeErrorf(field, "%v", err)
	}
	if !present {
		return nil, nil
	}
	root, err := s.LoadRefCell()
	if err != nil {
		return nil, decodeErrorf(field, "%v", err)
	}
	kvs, err := root.AsDict(keyBits).LoadAll()
	if err != nil {
		return nil, decodeErrorf(field, "bad dictionary: %v", err)
	}
	return kvs, nil
}

func loadDictLeaf(field string, t Type, leaf *cell.Slice) (Value, error) {
	c, err := leaf.LoadRefCell()
	if err != nil {
		return nil, decodeErrorf(field, "%v", err)
	}
	return unpackValue(field, t, c)
}

func loadArrayDict(s *cell.Slice, field string, elem Type, length int) (Value, error) {
	kvs, err := loadDict(s, field, arrayLengthBits)
	if err != nil {
		return nil, err
	}
	if len(kvs) != length {
		return nil, decodeErrorf(field, "expected %d items, found %d", length, len(kvs))
	}
	items := make(ArrayValue, length)
	for _, kv := range kvs {
		index, err := kv.Key.LoadUInt(arrayLengthBits)
		if err != nil {
			return nil, decodeErrorf(field, "%v", err)
		}
		if index >= uint64(length) || items[index] != nil {
			return nil, decodeErrorf(field, "unexpected item index %d", index)
		}
		itemField := joinField(field, itoa(int(index)))
		item, err := loadDictLeaf(itemField, elem, kv.Value)
		if err != nil {
			return nil, err
		}
		items[index] = item
	}
	return items, nil
}

func loadMap(s *cell.Slice, field string, t Type) (Value, error) {
	keyType := t.childTypes[0]
	kvs, err := loadDict(s, field, mapKeyBits(keyType))
	if err != nil {
		return nil, err
	}
	entries := make(MapValue, 0, len(kvs))
	for i, kv := range kvs {
		entryField := joinField(field, itoa(i))
		var key Value
		switch keyType.kind {
		case Int:
			v, err := kv.Key.LoadBigInt(uint(keyType.bitSize))
			if err != nil {
				return nil, decodeErrorf(entryField, "%v", err)
			}
			key = IntValue{Int: v}
		case Uint:
			v, err := kv.Key.LoadBigUInt(uint(keyType.bitSize))
			if err != nil {
				return nil, decodeErrorf(entryField, "%v", err)
			}
			key = IntValue{Int: v}
		case Address:
			v, err := address.Load(kv.Key)
			if err != nil || v == nil {
				return nil, decodeErrorf(entryField, "bad address key: %v", err)
			}
			key = AddressValue{Address: v}
		default:
			return nil, decodeErrorf(entryField, "map key of type %s is not allowed", keyType)
		}
		value, err := loadDictLeaf(entryField, t.childTypes[1], kv.Value)
		if err != nil {
			return nil, err
		}
		entries = append(entries, MapEntry{Key: key, Value: value})
	}
	sortMapEntries(keyType, entries)
	return entries, nil
}

// sortMapEntries orders entries by key: numerically for integer keys, by raw form for addresses.
func sortMapEntries(keyType Type, entries MapValue) {
	sort.SliceStable(entries, func(i, j int) bool {
		switch keyType.kind {
		case Int, Uint:
			return entries[i].Key.(IntValue).Int.Cmp(entries[j].Key.(IntValue).Int) < 0
		case Address:
			return entries[i].Key.(AddressValue).Address.String() < entries[j].Key.(AddressValue).Address.String()
		default:
			return false
		}
	})
}
