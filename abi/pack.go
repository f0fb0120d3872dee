package abi

import (
	"errors"
	"fmt"

	"github.com/xssnick/tonutils-go/tvm/cell"

	"github.com/everscale-go/tvm-abi/address"
)

// Pack serializes tokens into a cell chain, in token order.
func Pack(tokens []Token) (*cell.Cell, error) {
	w := newChainWriter(0)
	if err := writeTokens(w, "", tokens); err != nil {
		return nil, err
	}
	return w.finish()
}

// matchTokens checks that tokens carry exactly the given params, in order.
func matchTokens(params []Param, tokens []Token) error {
	if len(params) != len(tokens) {
		return schemaErrorf("", "expected %d tokens, got %d", len(params), len(tokens))
	}
	for i, p := range params {
		if tokens[i].Name != p.Name {
			return schemaErrorf(p.Name, "token %d is named %q", i, tokens[i].Name)
		}
		if !tokens[i].Type.Equal(p.Type) {
			return schemaErrorf(p.Name, "token type %s does not match %s", tokens[i].Type, p.Type)
		}
	}
	return nil
}

func writeTokens(w *chainWriter, path string, tokens []Token) error {
	for _, token := range tokens {
		field := joinField(path, token.Name)
		if err := checkValue(field, token.Type, token.Value); err != nil {
			return err
		}
		if err := writeValue(w, field, token.Type, token.Value); err != nil {
			return err
		}
	}
	return nil
}

func writeValue(w *chainWriter, field string, t Type, v Value) error {
	if t.kind == Tuple {
		components := v.(TupleValue)
		for i, f := range t.fields {
			if err := writeValue(w, joinField(field, f.Name), f.Type, components[i].Value); err != nil {
				return err
			}
		}
		return nil
	}
	return storeValue(w.next(itemFootprint(t)), field, t, v)
}

// packValue lays a single value out in its own cell chain.
func packValue(field string, t Type, v Value) (*cell.Cell, error) {
	w := newChainWriter(0)
	if err := writeValue(w, field, t, v); err != nil {
		return nil, err
	}
	return w.finish()
}

func storeValue(b *cell.Builder, field string, t Type, v Value) error {
	var err error
	switch t.kind {
	case Bool:
		err = b.StoreBoolBit(bool(v.(BoolValue)))
	case Int:
		err = b.StoreBigInt(v.(IntValue).Int, uint(t.bitSize))
	case Uint:
		err = b.StoreBigUInt(v.(IntValue).Int, uint(t.bitSize))
	case Gram:
		err = b.StoreBigCoins(v.(IntValue).Int)
	case Time:
		err = b.StoreUInt(uint64(v.(TimeValue)), 64)
	case Expire:
		err = b.StoreUInt(uint64(v.(ExpireValue)), 32)
	case Address:
		err = address.Store(b, v.(AddressValue).Address)
	case Cell:
		err = b.StoreRef(v.(CellValue).Cell)
	case Bytes, FixedBytes:
		err = storeSnake(b, v.(BytesValue))
	case String:
		err = storeSnake(b, []byte(v.(StringValue)))
	case PublicKey:
		key := v.(PublicKeyValue).Key
		if key == nil {
			err = b.StoreBoolBit(false)
			break
		}
		if err = b.StoreBoolBit(true); err == nil {
			err = b.StoreSlice(key, publicKeyBits)
		}
	case Array:
		items := v.(ArrayValue)
		if err = b.StoreUInt(uint64(len(items)), arrayLengthBits); err == nil {
			err = storeArrayDict(b, field, t.childTypes[0], items)
		}
	case FixedArray:
		err = storeArrayDict(b, field, t.childTypes[0], v.(ArrayValue))
	case Map:
		err = storeMap(b, field, t, v.(MapValue))
	case Optional:
		inner := v.(OptionalValue).Value
		if inner == nil {
			err = b.StoreBoolBit(false)
			break
		}
		var c *cell.Cell
		if c, err = packValue(field, t.childTypes[0], inner); err == nil {
			if err = b.StoreBoolBit(true); err == nil {
				err = b.StoreRef(c)
			}
		}
	case Ref:
		var c *cell.Cell
		if c, err = packValue(field, t.childTypes[0], v.(RefValue).Value); err == nil {
			err = b.StoreRef(c)
		}
	default:
		return schemaErrorf(field, "unsupported type %s", t)
	}
	if err != nil {
		var schemaErr *SchemaError
		if errors.As(err, &schemaErr) {
			return err
		}
		return fmt.Errorf("cannot store %q: %w", field, err)
	}
	return nil
}

func storeSnake(b *cell.Builder, data []byte) error {
	c, err := snakeCell(data)
	if err != nil {
		return err
	}
	return b.StoreRef(c)
}

// dictionary leaves hold a reference to the packed value chain.
func dictLeaf(field string, t Type, v Value) (*cell.Cell, error) {
	c, err := packValue(field, t, v)
	if err != nil {
		return nil, err
	}
	leaf := cell.BeginCell()
	if err := leaf.StoreRef(c); err != nil {
		return nil, err
	}
	return leaf.EndCell(), nil
}

func storeDict(b *cell.Builder, dict *cell.Dictionary) error {
	if dict.IsEmpty() {
		return b.StoreBoolBit(false)
	}
	if err := b.StoreBoolBit(true); err != nil {
		return err
	}
	return b.StoreRef(dict.AsCell())
}

func storeArrayDict(b *cell.Builder, field string, elem Type, items []Value) error {
	dict := cell.NewDict(arrayLengthBits)
	for i, item := range items {
		itemField := joinField(field, itoa(i))
		leaf, err := dictLeaf(itemField, elem, item)
		if err != nil {
			return err
		}
		key := cell.BeginCell().MustStoreUInt(uint64(i), arrayLengthBits).EndCell()
		if err := dict.Set(key, leaf); err != nil {
			return fmt.Errorf("cannot store %q: %w", itemField, err)
		}
	}
	return storeDict(b, dict)
}

func mapKeyBits(key Type) uint {
	if key.kind == Address {
		return address.MaxBits
	}
	return uint(key.bitSize)
}

func mapKeyCell(key Type, v Value) (*cell.Cell, error) {
	b := cell.BeginCell()
	var err error
	switch key.kind {
	case Int:
		err = b.StoreBigInt(v.(IntValue).Int, uint(key.bitSize))
	case Uint:
		err = b.StoreBigUInt(v.(IntValue).Int, uint(key.bitSize))
	case Address:
		err = address.Store(b, v.(AddressValue).Address)
	default:
		err = fmt.Errorf("map key of type %s is not allowed", key)
	}
	if err != nil {
		return nil, err
	}
	return b.EndCell(), nil
}

func storeMap(b *cell.Builder, field string, t Type, entries MapValue) error {
	keyType := t.childTypes[0]
	dict := cell.NewDict(mapKeyBits(keyType))
	seen := make(map[string]struct{}, len(entries))
	for i, entry := range entries {
		entryField := joinField(field, itoa(i))
		key, err := mapKeyCell(keyType, entry.Key)
		if err != nil {
			return schemaErrorf(entryField, "%v", err)
		}
		if _, dup := seen[string(key.Hash())]; dup {
			return schemaErrorf(entryField, "duplicate map key")
		}
		seen[string(key.Hash())] = struct{}{}

		leaf, err := dictLeaf(entryField, t.childTypes[1], entry.Value)
		if err != nil {
			return err
		}
		if err := dict.Set(key, leaf); err != nil {
			return fmt.Errorf("cannot store %q: %w", entryField, err)
		}
	}
	return storeDict(b, dict)
}
