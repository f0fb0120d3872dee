package abi

import (
	"crypto/ed25519"
	"math/big"
	"unicode/utf8"

	"github.com/xssnick/tonutils-go/tvm/cell"

	"github.com/everscale-go/tvm-abi/address"
)

// Token is a named value ready to be packed, or freshly unpacked, against its Type.
type Token struct {
	Name  string
	Type  Type
	Value Value
}

// Param returns the parameter the token conforms to.
func (t Token) Param() Param {
	return Param{Name: t.Name, Type: t.Type}
}

// Value is the closed set of token values. The concrete type is determined by the kind of the
// token's Type:
//
//	Bool                 BoolValue
//	Int, Uint, Gram      IntValue
//	Time                 TimeValue
//	Expire               ExpireValue
//	Address              AddressValue
//	Cell                 CellValue
//	Bytes, FixedBytes    BytesValue
//	String               StringValue
//	PublicKey            PublicKeyValue
//	Array, FixedArray    ArrayValue
//	Map                  MapValue
//	Tuple                TupleValue
//	Optional             OptionalValue
//	Ref                  RefValue
type Value interface {
	isValue()
}

type (
	// BoolValue holds a Bool.
	BoolValue bool
	// IntValue holds an Int, Uint or Gram amount.
	IntValue struct{ Int *big.Int }
	// TimeValue holds a millisecond timestamp.
	TimeValue uint64
	// ExpireValue holds an expiration timestamp in seconds.
	ExpireValue uint32
	// AddressValue holds an address; a nil Address is addr_none.
	AddressValue struct{ Address *address.Address }
	// CellValue holds an arbitrary cell.
	CellValue struct{ Cell *cell.Cell }
	// BytesValue holds Bytes or FixedBytes.
	BytesValue []byte
	// StringValue holds a String.
	StringValue string
	// PublicKeyValue holds an optional public key; a nil Key means absent.
	PublicKeyValue struct{ Key ed25519.PublicKey }
	// ArrayValue holds the items of an Array or FixedArray.
	ArrayValue []Value
	// MapValue holds the entries of a Map in key order.
	MapValue []MapEntry
	// TupleValue holds the components of a Tuple.
	TupleValue []Token
	// OptionalValue holds an Optional; a nil Value means absent.
	OptionalValue struct{ Value Value }
	// RefValue holds the value of a Ref.
	RefValue struct{ Value Value }
)

// MapEntry is a single dictionary entry.
type MapEntry struct {
	Key   Value
	Value Value
}

func (BoolValue) isValue()      {}
func (IntValue) isValue()       {}
func (TimeValue) isValue()      {}
func (ExpireValue) isValue()    {}
func (AddressValue) isValue()   {}
func (CellValue) isValue()      {}
func (BytesValue) isValue()     {}
func (StringValue) isValue()    {}
func (PublicKeyValue) isValue() {}
func (ArrayValue) isValue()     {}
func (MapValue) isValue()       {}
func (TupleValue) isValue()     {}
func (OptionalValue) isValue()  {}
func (RefValue) isValue()       {}

// NewIntValue wraps a signed integer.
func NewIntValue(v int64) IntValue { return IntValue{Int: big.NewInt(v)} }

// NewUintValue wraps an unsigned integer.
func NewUintValue(v uint64) IntValue { return IntValue{Int: new(big.Int).SetUint64(v)} }

// NewToken builds a token from a parameter and a value. The value is checked against the
// parameter's type.
func NewToken(p Param, v Value) (Token, error) {
	if err := checkValue(p.Name, p.Type, v); err != nil {
		return Token{}, err
	}
	return Token{Name: p.Name, Type: p.Type, Value: v}, nil
}

var (
	bigOne = big.NewInt(1)
)

func intRange(t Type) (min, max *big.Int) {
	switch t.kind {
	case Int:
		max = new(big.Int).Lsh(bigOne, uint(t.bitSize-1))
		min = new(big.Int).Neg(max)
		max.Sub(max, bigOne)
	case Uint:
		min = new(big.Int)
		max = new(big.Int).Lsh(bigOne, uint(t.bitSize))
		max.Sub(max, bigOne)
	case Gram:
		min = new(big.Int)
		max = new(big.Int).Lsh(bigOne, maxGrams)
		max.Sub(max, bigOne)
	}
	return min, max
}

// checkValue verifies that v is the value variant for t and that it is within range.
func checkValue(field string, t Type, v Value) error {
	switch t.kind {
	case Bool:
		if _, ok := v.(BoolValue); !ok {
			return schemaErrorf(field, "expected bool, got %T", v)
		}
	case Int, Uint, Gram:
		iv, ok := v.(IntValue)
		if !ok || iv.Int == nil {
			return schemaErrorf(field, "expected integer, got %T", v)
		}
		min, max := intRange(t)
		if iv.Int.Cmp(min) < 0 || iv.Int.Cmp(max) > 0 {
			return schemaErrorf(field, "%s out of range for %s", iv.Int, t)
		}
	case Time:
		if _, ok := v.(TimeValue); !ok {
			return schemaErrorf(field, "expected time, got %T", v)
		}
	case Expire:
		if _, ok := v.(ExpireValue); !ok {
			return schemaErrorf(field, "expected expire, got %T", v)
		}
	case Address:
		if _, ok := v.(AddressValue); !ok {
			return schemaErrorf(field, "expected address, got %T", v)
		}
	case Cell:
		cv, ok := v.(CellValue)
		if !ok || cv.Cell == nil {
			return schemaErrorf(field, "expected cell, got %T", v)
		}
	case Bytes:
		if _, ok := v.(BytesValue); !ok {
			return schemaErrorf(field, "expected bytes, got %T", v)
		}
	case FixedBytes:
		bv, ok := v.(BytesValue)
		if !ok {
			return schemaErrorf(field, "expected bytes, got %T", v)
		}
		if len(bv) != t.length {
			return schemaErrorf(field, "expected %d bytes, got %d", t.length, len(bv))
		}
	case String:
		sv, ok := v.(StringValue)
		if !ok {
			return schemaErrorf(field, "expected string, got %T", v)
		}
		if !utf8.ValidString(string(sv)) {
			return schemaErrorf(field, "string is not valid UTF-8")
		}
	case PublicKey:
		pv, ok := v.(PublicKeyValue)
		if !ok {
			return schemaErrorf(field, "expected public key, got %T", v)
		}
		if pv.Key != nil && len(pv.Key) != ed25519.PublicKeySize {
			return schemaErrorf(field, "public key must be %d bytes, got %d", ed25519.PublicKeySize, len(pv.Key))
		}
	case Array, FixedArray:
		av, ok := v.(ArrayValue)
		if !ok {
			return schemaErrorf(field, "expected array, got %T", v)
		}
		if t.kind == FixedArray && len(av) != t.length {
			return schemaErrorf(field, "expected %d items, got %d", t.length, len(av))
		}
		for i, item := range av {
			if err := checkValue(joinField(field, itoa(i)), t.childTypes[0], item); err != nil {
				return err
			}
		}
	case Map:
		mv, ok := v.(MapValue)
		if !ok {
			return schemaErrorf(field, "expected map, got %T", v)
		}
		for i, entry := range mv {
			if err := checkMapKey(joinField(field, itoa(i)), t.childTypes[0], entry.Key); err != nil {
				return err
			}
			if err := checkValue(joinField(field, itoa(i)), t.childTypes[1], entry.Value); err != nil {
				return err
			}
		}
	case Tuple:
		tv, ok := v.(TupleValue)
		if !ok {
			return schemaErrorf(field, "expected tuple, got %T", v)
		}
		if len(tv) != len(t.fields) {
			return schemaErrorf(field, "expected %d components, got %d", len(t.fields), len(tv))
		}
		for i, f := range t.fields {
			if tv[i].Name != f.Name || !tv[i].Type.Equal(f.Type) {
				return schemaErrorf(joinField(field, f.Name), "component %d does not match %s %s", i, f.Name, f.Type)
			}
			if err := checkValue(joinField(field, f.Name), f.Type, tv[i].Value); err != nil {
				return err
			}
		}
	case Optional:
		ov, ok := v.(OptionalValue)
		if !ok {
			return schemaErrorf(field, "expected optional, got %T", v)
		}
		if ov.Value != nil {
			return checkValue(field, t.childTypes[0], ov.Value)
		}
	case Ref:
		rv, ok := v.(RefValue)
		if !ok || rv.Value == nil {
			return schemaErrorf(field, "expected ref, got %T", v)
		}
		return checkValue(field, t.childTypes[0], rv.Value)
	default:
		return schemaErrorf(field, "unsupported type %s", t)
	}
	return nil
}

func checkMapKey(field string, key Type, v Value) error {
	switch key.kind {
	case Int, Uint:
		return checkValue(field, key, v)
	case Address:
		av, ok := v.(AddressValue)
		if !ok || av.Address == nil {
			return schemaErrorf(field, "map key must be a standard address")
		}
		return nil
	default:
		return schemaErrorf(field, "map key of type %s is not allowed", key)
	}
}
