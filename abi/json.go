package abi

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xssnick/tonutils-go/tvm/cell"

	"github.com/everscale-go/tvm-abi/address"
	"github.com/everscale-go/tvm-abi/boc"
)

// decodeJSON reads data keeping numbers as json.Number, so that wide integers survive.
func decodeJSON(data []byte) (interface{}, error) {
	d := json.NewDecoder(bytes.NewReader(data))
	d.UseNumber()
	var v interface{}
	if err := d.Decode(&v); err != nil {
		return nil, err
	}
	if d.More() {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}
	return v, nil
}

// UnmarshalFromJSON parses a JSON value of type t.
func (t Type) UnmarshalFromJSON(jsonEncoded []byte) (Value, error) {
	v, err := decodeJSON(jsonEncoded)
	if err != nil {
		return nil, fmt.Errorf("cannot parse JSON for %s: %w", t, err)
	}
	return ParseValue("", t, v)
}

// MarshalToJSON renders a value of type t as JSON.
func (t Type) MarshalToJSON(value Value) ([]byte, error) {
	if err := checkValue("", t, value); err != nil {
		return nil, err
	}
	return json.Marshal(jsonValue(t, value))
}

// UnmarshalTokensFromJSON parses a JSON object keyed by parameter name into tokens.
func UnmarshalTokensFromJSON(params []Param, data []byte) ([]Token, error) {
	v, err := decodeJSON(data)
	if err != nil {
		return nil, fmt.Errorf("cannot parse tokens JSON: %w", err)
	}
	return ParseTokens(params, v)
}

// ParseTokens converts a decoded JSON object into tokens for params. Every param is required.
func ParseTokens(params []Param, value interface{}) ([]Token, error) {
	if value == nil && len(params) == 0 {
		return []Token{}, nil
	}
	obj, ok := value.(map[string]interface{})
	if !ok {
		return nil, schemaErrorf("", "expected object, got %s", jsonKind(value))
	}
	tokens := make([]Token, 0, len(params))
	for _, p := range params {
		raw, ok := obj[p.Name]
		if !ok {
			return nil, schemaErrorf(p.Name, "missing field")
		}
		v, err := ParseValue(p.Name, p.Type, raw)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, Token{Name: p.Name, Type: p.Type, Value: v})
	}
	return tokens, nil
}

// ParseValue converts a decoded JSON value into a Value of type t. field names the value in errors.
func ParseValue(field string, t Type, v interface{}) (Value, error) {
	switch t.kind {
	case Bool:
		b, ok := v.(bool)
		if !ok {
			return nil, schemaErrorf(field, "expected bool, got %s", jsonKind(v))
		}
		return BoolValue(b), nil
	case Int, Uint, Gram:
		n, err := parseBigInt(v)
		if err != nil {
			return nil, schemaErrorf(field, "%v", err)
		}
		res := IntValue{Int: n}
		if err := checkValue(field, t, res); err != nil {
			return nil, err
		}
		return res, nil
	case Time:
		n, err := parseUint(v, 64)
		if err != nil {
			return nil, schemaErrorf(field, "%v", err)
		}
		return TimeValue(n), nil
	case Expire:
		n, err := parseUint(v, 32)
		if err != nil {
			return nil, schemaErrorf(field, "%v", err)
		}
		return ExpireValue(n), nil
	case Address:
		s, ok := v.(string)
		if !ok {
			return nil, schemaErrorf(field, "expected address string, got %s", jsonKind(v))
		}
		if s == "" {
			return AddressValue{}, nil
		}
		addr, err := address.FromString(s)
		if err != nil {
			return nil, schemaErrorf(field, "%v", err)
		}
		return AddressValue{Address: &addr}, nil
	case Cell:
		s, ok := v.(string)
		if !ok {
			return nil, schemaErrorf(field, "expected base64 cell, got %s", jsonKind(v))
		}
		if s == "" {
			return CellValue{Cell: cell.BeginCell().EndCell()}, nil
		}
		c, err := boc.Decode(s)
		if err != nil {
			return nil, schemaErrorf(field, "%v", err)
		}
		return CellValue{Cell: c}, nil
	case Bytes, FixedBytes:
		s, ok := v.(string)
		if !ok {
			return nil, schemaErrorf(field, "expected base64 bytes, got %s", jsonKind(v))
		}
		data, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, schemaErrorf(field, "base64 decode error: %v", err)
		}
		res := BytesValue(data)
		if err := checkValue(field, t, res); err != nil {
			return nil, err
		}
		return res, nil
	case String:
		s, ok := v.(string)
		if !ok {
			return nil, schemaErrorf(field, "expected string, got %s", jsonKind(v))
		}
		return StringValue(s), nil
	case PublicKey:
		if v == nil {
			return PublicKeyValue{}, nil
		}
		s, ok := v.(string)
		if !ok {
			return nil, schemaErrorf(field, "expected hex public key, got %s", jsonKind(v))
		}
		if s == "" {
			return PublicKeyValue{}, nil
		}
		key, err := CheckPublicKey(s)
		if err != nil {
			return nil, schemaErrorf(field, "%v", err)
		}
		return PublicKeyValue{Key: key}, nil
	case Array, FixedArray:
		items, ok := v.([]interface{})
		if !ok {
			return nil, schemaErrorf(field, "expected array, got %s", jsonKind(v))
		}
		if t.kind == FixedArray && len(items) != t.length {
			return nil, schemaErrorf(field, "expected %d items, got %d", t.length, len(items))
		}
		res := make(ArrayValue, len(items))
		for i, item := range items {
			parsed, err := ParseValue(joinField(field, itoa(i)), t.childTypes[0], item)
			if err != nil {
				return nil, err
			}
			res[i] = parsed
		}
		return res, nil
	case Map:
		return parseMap(field, t, v)
	case Tuple:
		return parseTuple(field, t, v)
	case Optional:
		if v == nil {
			return OptionalValue{}, nil
		}
		inner, err := ParseValue(field, t.childTypes[0], v)
		if err != nil {
			return nil, err
		}
		return OptionalValue{Value: inner}, nil
	case Ref:
		inner, err := ParseValue(field, t.childTypes[0], v)
		if err != nil {
			return nil, err
		}
		return RefValue{Value: inner}, nil
	default:
		return nil, schemaErrorf(field, "unsupported type %s", t)
	}
}

func parseMap(field string, t Type, v interface{}) (Value, error) {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil, schemaErrorf(field, "expected object, got %s", jsonKind(v))
	}
	keyType := t.childTypes[0]
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make(MapValue, 0, len(obj))
	for _, rawKey := range keys {
		rawValue := obj[rawKey]
		entryField := joinField(field, rawKey)
		key, err := parseMapKey(entryField, keyType, rawKey)
		if err != nil {
			return nil, err
		}
		value, err := ParseValue(entryField, t.childTypes[1], rawValue)
		if err != nil {
			return nil, err
		}
		entries = append(entries, MapEntry{Key: key, Value: value})
	}
	sortMapEntries(keyType, entries)
	return entries, nil
}

func parseMapKey(field string, keyType Type, raw string) (Value, error) {
	switch keyType.kind {
	case Int, Uint:
		n, err := parseBigInt(raw)
		if err != nil {
			return nil, schemaErrorf(field, "bad map key: %v", err)
		}
		key := IntValue{Int: n}
		if err := checkValue(field, keyType, key); err != nil {
			return nil, err
		}
		return key, nil
	case Address:
		addr, err := address.FromString(raw)
		if err != nil {
			return nil, schemaErrorf(field, "bad map key: %v", err)
		}
		return AddressValue{Address: &addr}, nil
	default:
		return nil, schemaErrorf(field, "map key of type %s is not allowed", keyType)
	}
}

func parseTuple(field string, t Type, v interface{}) (Value, error) {
	res := make(TupleValue, len(t.fields))
	switch raw := v.(type) {
	case map[string]interface{}:
		for i, f := range t.fields {
			item, ok := raw[f.Name]
			if !ok {
				return nil, schemaErrorf(joinField(field, f.Name), "missing field")
			}
			parsed, err := ParseValue(joinField(field, f.Name), f.Type, item)
			if err != nil {
				return nil, err
			}
			res[i] = Token{Name: f.Name, Type: f.Type, Value: parsed}
		}
	case []interface{}:
		if len(raw) != len(t.fields) {
			return nil, schemaErrorf(field, "expected %d components, got %d", len(t.fields), len(raw))
		}
		for i, f := range t.fields {
			parsed, err := ParseValue(joinField(field, f.Name), f.Type, raw[i])
			if err != nil {
				return nil, err
			}
			res[i] = Token{Name: f.Name, Type: f.Type, Value: parsed}
		}
	default:
		return nil, schemaErrorf(field, "expected tuple object, got %s", jsonKind(v))
	}
	return res, nil
}

func parseBigInt(v interface{}) (*big.Int, error) {
	var s string
	switch raw := v.(type) {
	case json.Number:
		s = raw.String()
	case string:
		s = strings.TrimSpace(raw)
	case float64:
		if raw != math.Trunc(raw) || math.IsInf(raw, 0) {
			return nil, fmt.Errorf("expected integer, got %v", raw)
		}
		n, _ := new(big.Float).SetFloat64(raw).Int(nil)
		return n, nil
	default:
		return nil, fmt.Errorf("expected integer, got %s", jsonKind(v))
	}
	neg := strings.HasPrefix(s, "-")
	digits := strings.TrimPrefix(s, "-")
	base := 10
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
		base = 16
		digits = digits[2:]
	}
	n, ok := new(big.Int).SetString(digits, base)
	if !ok || digits == "" || strings.HasPrefix(digits, "+") || strings.HasPrefix(digits, "-") {
		return nil, fmt.Errorf("invalid integer %q", s)
	}
	if neg {
		n.Neg(n)
	}
	return n, nil
}

func parseUint(v interface{}, bits int) (uint64, error) {
	n, err := parseBigInt(v)
	if err != nil {
		return 0, err
	}
	if n.Sign() < 0 || n.BitLen() > bits {
		return 0, fmt.Errorf("%s out of range for uint%d", n, bits)
	}
	return n.Uint64(), nil
}

func jsonKind(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case json.Number, float64:
		return "number"
	case string:
		return "string"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// CheckPublicKey parses a hex encoded ed25519 public key.
func CheckPublicKey(s string) (ed25519.PublicKey, error) {
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("hex decode error: %w", err)
	}
	if len(data) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key must be %d bytes, got %d", ed25519.PublicKeySize, len(data))
	}
	return ed25519.PublicKey(data), nil
}

// MakeJSONValue renders tokens as a JSON object keyed by token name.
func MakeJSONValue(tokens []Token) map[string]interface{} {
	res := make(map[string]interface{}, len(tokens))
	for _, token := range tokens {
		res[token.Name] = jsonValue(token.Type, token.Value)
	}
	return res
}

// MarshalTokensToJSON renders tokens as a JSON object keyed by token name.
func MarshalTokensToJSON(tokens []Token) ([]byte, error) {
	return json.Marshal(MakeJSONValue(tokens))
}

// jsonValue renders v, which must already conform to t. Integers are decimal strings so that wide
// values survive JSON consumers; expire stays a number.
func jsonValue(t Type, v Value) interface{} {
	switch t.kind {
	case Bool:
		return bool(v.(BoolValue))
	case Int, Uint, Gram:
		return v.(IntValue).Int.String()
	case Time:
		return strconv.FormatUint(uint64(v.(TimeValue)), 10)
	case Expire:
		return uint32(v.(ExpireValue))
	case Address:
		addr := v.(AddressValue).Address
		if addr == nil {
			return ""
		}
		return addr.String()
	case Cell:
		return boc.Encode(v.(CellValue).Cell)
	case Bytes, FixedBytes:
		return base64.StdEncoding.EncodeToString(v.(BytesValue))
	case String:
		s := string(v.(StringValue))
		if !utf8.ValidString(s) {
			return strings.ToValidUTF8(s, "�")
		}
		return s
	case PublicKey:
		key := v.(PublicKeyValue).Key
		if key == nil {
			return nil
		}
		return hex.EncodeToString(key)
	case Array, FixedArray:
		items := v.(ArrayValue)
		res := make([]interface{}, len(items))
		for i, item := range items {
			res[i] = jsonValue(t.childTypes[0], item)
		}
		return res
	case Map:
		entries := v.(MapValue)
		res := make(map[string]interface{}, len(entries))
		for _, entry := range entries {
			var key string
			switch k := entry.Key.(type) {
			case IntValue:
				key = k.Int.String()
			case AddressValue:
				key = k.Address.String()
			}
			res[key] = jsonValue(t.childTypes[1], entry.Value)
		}
		return res
	case Tuple:
		return MakeJSONValue(v.(TupleValue))
	case Optional:
		inner := v.(OptionalValue).Value
		if inner == nil {
			return nil
		}
		return jsonValue(t.childTypes[0], inner)
	case Ref:
		return jsonValue(t.childTypes[0], v.(RefValue).Value)
	default:
		return nil
	}
}
