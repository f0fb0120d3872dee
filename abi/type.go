package abi

import (
	"fmt"
	"strings"
)

// Kind is the closed set of ABI parameter kinds.
type Kind int

const (
	// Bool is a single bit.
	Bool Kind = iota
	// Int is a signed integer of a fixed bit width.
	Int
	// Uint is an unsigned integer of a fixed bit width.
	Uint
	// Array is a dynamic length array.
	Array
	// FixedArray is an array with a static length.
	FixedArray
	// Map is a dictionary keyed by Int, Uint or Address values.
	Map
	// Tuple is an ordered list of named components.
	Tuple
	// Cell is an arbitrary cell, stored as a reference.
	Cell
	// Address is a message address.
	Address
	// Gram is an amount of native currency (VarUInteger 16).
	Gram
	// Bytes is a byte string of any length.
	Bytes
	// FixedBytes is a byte string of a static length.
	FixedBytes
	// Time is the 64-bit millisecond timestamp header.
	Time
	// Expire is the 32-bit expiration header, in seconds.
	Expire
	// PublicKey is the optional 256-bit public key header.
	PublicKey
	// String is a UTF-8 string.
	String
	// Optional is a value that may be absent.
	Optional
	// Ref is a value stored in a child cell.
	Ref
)

var kindNames = [...]string{
	Bool:       "bool",
	Int:        "int",
	Uint:       "uint",
	Array:      "array",
	FixedArray: "fixedarray",
	Map:        "map",
	Tuple:      "tuple",
	Cell:       "cell",
	Address:    "address",
	Gram:       "gram",
	Bytes:      "bytes",
	FixedBytes: "fixedbytes",
	Time:       "time",
	Expire:     "expire",
	PublicKey:  "pubkey",
	String:     "string",
	Optional:   "optional",
	Ref:        "ref",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

const (
	maxIntBits = 256
	maxGrams   = 120
)

// Type is an immutable ABI parameter type.
type Type struct {
	kind Kind
	// bitSize is set for Int and Uint.
	bitSize int
	// length is set for FixedArray and FixedBytes.
	length int
	// childTypes holds the element type for Array, FixedArray, Optional and Ref,
	// and the key and value types for Map.
	childTypes []Type
	// fields is set for Tuple.
	fields []Param
}

// MakeBoolType makes a Bool type.
func MakeBoolType() Type { return Type{kind: Bool} }

// MakeIntType makes a signed integer type.
func MakeIntType(bits int) (Type, error) {
	if bits < 1 || bits > maxIntBits {
		return Type{}, fmt.Errorf("unsupported int bit size: %d", bits)
	}
	return Type{kind: Int, bitSize: bits}, nil
}

// MakeUintType makes an unsigned integer type.
func MakeUintType(bits int) (Type, error) {
	if bits < 1 || bits > maxIntBits {
		return Type{}, fmt.Errorf("unsupported uint bit size: %d", bits)
	}
	return Type{kind: Uint, bitSize: bits}, nil
}

// MakeArrayType makes a dynamic array of elem.
func MakeArrayType(elem Type) Type {
	return Type{kind: Array, childTypes: []Type{elem}}
}

// MakeFixedArrayType makes a static array of elem.
func MakeFixedArrayType(elem Type, length int) (Type, error) {
	if length < 1 {
		return Type{}, fmt.Errorf("fixed array length must be positive: %d", length)
	}
	return Type{kind: FixedArray, length: length, childTypes: []Type{elem}}, nil
}

// MakeMapType makes a dictionary type. Only Int, Uint and Address keys are allowed.
func MakeMapType(key, value Type) (Type, error) {
	switch key.kind {
	case Int, Uint, Address:
	default:
		return Type{}, fmt.Errorf("map key must be int, uint or address, got %s", key)
	}
	return Type{kind: Map, childTypes: []Type{key, value}}, nil
}

// MakeTupleType makes a tuple of the given components.
func MakeTupleType(fields []Param) Type {
	return Type{kind: Tuple, fields: append([]Param(nil), fields...)}
}

// MakeFixedBytesType makes a byte string type of a static length.
func MakeFixedBytesType(length int) (Type, error) {
	if length < 1 {
		return Type{}, fmt.Errorf("fixedbytes length must be positive: %d", length)
	}
	return Type{kind: FixedBytes, length: length}, nil
}

// MakeOptionalType makes an optional of inner.
func MakeOptionalType(inner Type) Type {
	return Type{kind: Optional, childTypes: []Type{inner}}
}

// MakeRefType makes a value stored in a child cell.
func MakeRefType(inner Type) Type {
	return Type{kind: Ref, childTypes: []Type{inner}}
}

func makeSimpleType(k Kind) Type { return Type{kind: k} }

// Kind returns the kind of t.
func (t Type) Kind() Kind { return t.kind }

// BitSize returns the bit width of an Int or Uint type.
func (t Type) BitSize() int { return t.bitSize }

// Length returns the length of a FixedArray or FixedBytes type.
func (t Type) Length() int { return t.length }

// Elem returns the element type of Array, FixedArray, Optional and Ref types, and the value type of
// a Map.
func (t Type) Elem() Type {
	switch t.kind {
	case Array, FixedArray, Optional, Ref:
		return t.childTypes[0]
	case Map:
		return t.childTypes[1]
	default:
		panic(fmt.Sprintf("abi: Elem of %s", t.kind))
	}
}

// Key returns the key type of a Map.
func (t Type) Key() Type {
	if t.kind != Map {
		panic(fmt.Sprintf("abi: Key of %s", t.kind))
	}
	return t.childTypes[0]
}

// Fields returns a copy of the components of a Tuple.
func (t Type) Fields() []Param {
	return append([]Param(nil), t.fields...)
}

// Equal reports whether t and other describe the same type, including tuple component names.
func (t Type) Equal(other Type) bool {
	if t.kind != other.kind || t.bitSize != other.bitSize || t.length != other.length {
		return false
	}
	if len(t.childTypes) != len(other.childTypes) || len(t.fields) != len(other.fields) {
		return false
	}
	for i := range t.childTypes {
		if !t.childTypes[i].Equal(other.childTypes[i]) {
			return false
		}
	}
	for i := range t.fields {
		if t.fields[i].Name != other.fields[i].Name || !t.fields[i].Type.Equal(other.fields[i].Type) {
			return false
		}
	}
	return true
}

// String returns the signature form of t, as used for function id computation.
func (t Type) String() string {
	switch t.kind {
	case Int:
		return fmt.Sprintf("int%d", t.bitSize)
	case Uint:
		return fmt.Sprintf("uint%d", t.bitSize)
	case Array:
		return t.childTypes[0].String() + "[]"
	case FixedArray:
		return fmt.Sprintf("%s[%d]", t.childTypes[0], t.length)
	case Map:
		return fmt.Sprintf("map(%s,%s)", t.childTypes[0], t.childTypes[1])
	case Tuple:
		parts := make([]string, len(t.fields))
		for i, f := range t.fields {
			parts[i] = f.Type.String()
		}
		return "(" + strings.Join(parts, ",") + ")"
	case FixedBytes:
		return fmt.Sprintf("fixedbytes%d", t.length)
	case Optional:
		return fmt.Sprintf("optional(%s)", t.childTypes[0])
	case Ref:
		return fmt.Sprintf("ref(%s)", t.childTypes[0])
	case Bool, Cell, Address, Gram, Bytes, Time, Expire, PublicKey, String:
		return t.kind.String()
	default:
		return fmt.Sprintf("<invalid type %d>", int(t.kind))
	}
}

// SetComponents attaches tuple components to t, descending through array, fixed array, map value,
// optional and ref wrappers. A tuple must receive at least one component, any other type none.
func SetComponents(t Type, components []Param) (Type, error) {
	switch t.kind {
	case Tuple:
		if len(components) == 0 {
			return Type{}, &GrammarError{Code: InvalidComponents, Descriptor: t.String(), Reason: "tuple without components"}
		}
		return MakeTupleType(components), nil
	case Array, FixedArray, Optional, Ref:
		elem, err := SetComponents(t.childTypes[0], components)
		if err != nil {
			return Type{}, err
		}
		res := t
		res.childTypes = []Type{elem}
		return res, nil
	case Map:
		value, err := SetComponents(t.childTypes[1], components)
		if err != nil {
			return Type{}, err
		}
		res := t
		res.childTypes = []Type{t.childTypes[0], value}
		return res, nil
	default:
		if len(components) != 0 {
			return Type{}, &GrammarError{Code: InvalidComponents, Descriptor: t.String(), Reason: "components on a non-tuple type"}
		}
		return t, nil
	}
}
