package abi

import (
	"strconv"
	"strings"
	"unicode"
)

type lexemeKind int

const (
	lexIdent lexemeKind = iota
	lexNumber
	lexPunct
)

type lexeme struct {
	kind lexemeKind
	text string
}

func lexType(descriptor string) ([]lexeme, error) {
	var res []lexeme
	runes := []rune(descriptor)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case strings.ContainsRune("()[],", r):
			res = append(res, lexeme{kind: lexPunct, text: string(r)})
			i++
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			j := i
			for j < len(runes) && runes[j] < unicode.MaxASCII && (unicode.IsLetter(runes[j]) || unicode.IsDigit(runes[j])) {
				j++
			}
			res = append(res, lexeme{kind: lexIdent, text: string(runes[i:j])})
			i = j
		case r < unicode.MaxASCII && unicode.IsDigit(r):
			j := i
			for j < len(runes) && runes[j] < unicode.MaxASCII && unicode.IsDigit(runes[j]) {
				j++
			}
			res = append(res, lexeme{kind: lexNumber, text: string(runes[i:j])})
			i = j
		default:
			return nil, expectedParamType(descriptor, "unexpected character %q", r)
		}
	}
	return res, nil
}

type typeParser struct {
	descriptor string
	lexemes    []lexeme
	pos        int
}

// TypeOf parses an ABI type descriptor such as "uint128", "map(address,uint32)" or "uint8[][3]".
// Tuple descriptors ("tuple", "tuple[]") yield tuples without components; attach them with
// SetComponents.
func TypeOf(descriptor string) (Type, error) {
	lexemes, err := lexType(descriptor)
	if err != nil {
		return Type{}, err
	}
	p := &typeParser{descriptor: descriptor, lexemes: lexemes}
	t, err := p.parseType()
	if err != nil {
		return Type{}, err
	}
	if p.pos != len(p.lexemes) {
		return Type{}, expectedParamType(descriptor, "unexpected %q", p.lexemes[p.pos].text)
	}
	return t, nil
}

func (p *typeParser) peekPunct(text string) bool {
	return p.pos < len(p.lexemes) && p.lexemes[p.pos].kind == lexPunct && p.lexemes[p.pos].text == text
}

func (p *typeParser) expectPunct(text string) error {
	if !p.peekPunct(text) {
		if p.pos >= len(p.lexemes) {
			return expectedParamType(p.descriptor, "expected %q at end of descriptor", text)
		}
		return expectedParamType(p.descriptor, "expected %q, found %q", text, p.lexemes[p.pos].text)
	}
	p.pos++
	return nil
}

// parseType parses a base type followed by any number of array suffixes, applied left to right.
func (p *typeParser) parseType() (Type, error) {
	t, err := p.parseBase()
	if err != nil {
		return Type{}, err
	}
	for p.peekPunct("[") {
		p.pos++
		if p.peekPunct("]") {
			p.pos++
			t = MakeArrayType(t)
			continue
		}
		if p.pos >= len(p.lexemes) || p.lexemes[p.pos].kind != lexNumber {
			return Type{}, expectedParamType(p.descriptor, "array length must be a number")
		}
		length, err := strconv.Atoi(p.lexemes[p.pos].text)
		if err != nil {
			return Type{}, expectedParamType(p.descriptor, "bad array length: %v", err)
		}
		p.pos++
		if err := p.expectPunct("]"); err != nil {
			return Type{}, err
		}
		t, err = MakeFixedArrayType(t, length)
		if err != nil {
			return Type{}, expectedParamType(p.descriptor, "%v", err)
		}
	}
	return t, nil
}

func (p *typeParser) parseWrapped() (Type, error) {
	if err := p.expectPunct("("); err != nil {
		return Type{}, err
	}
	inner, err := p.parseType()
	if err != nil {
		return Type{}, err
	}
	if err := p.expectPunct(")"); err != nil {
		return Type{}, err
	}
	return inner, nil
}

func (p *typeParser) parseBase() (Type, error) {
	if p.pos >= len(p.lexemes) {
		return Type{}, expectedParamType(p.descriptor, "missing type")
	}
	lx := p.lexemes[p.pos]
	if lx.kind != lexIdent {
		return Type{}, expectedParamType(p.descriptor, "unexpected %q", lx.text)
	}
	p.pos++

	switch lx.text {
	case "bool":
		return MakeBoolType(), nil
	case "tuple":
		return Type{kind: Tuple}, nil
	case "cell":
		return makeSimpleType(Cell), nil
	case "address":
		return makeSimpleType(Address), nil
	case "token", "gram":
		return makeSimpleType(Gram), nil
	case "bytes":
		return makeSimpleType(Bytes), nil
	case "time":
		return makeSimpleType(Time), nil
	case "expire":
		return makeSimpleType(Expire), nil
	case "pubkey":
		return makeSimpleType(PublicKey), nil
	case "string":
		return makeSimpleType(String), nil
	case "map":
		if err := p.expectPunct("("); err != nil {
			return Type{}, err
		}
		key, err := p.parseType()
		if err != nil {
			return Type{}, err
		}
		if err := p.expectPunct(","); err != nil {
			return Type{}, err
		}
		value, err := p.parseType()
		if err != nil {
			return Type{}, err
		}
		if err := p.expectPunct(")"); err != nil {
			return Type{}, err
		}
		t, err := MakeMapType(key, value)
		if err != nil {
			return Type{}, expectedParamType(p.descriptor, "%v", err)
		}
		return t, nil
	case "optional":
		inner, err := p.parseWrapped()
		if err != nil {
			return Type{}, err
		}
		return MakeOptionalType(inner), nil
	case "ref":
		inner, err := p.parseWrapped()
		if err != nil {
			return Type{}, err
		}
		return MakeRefType(inner), nil
	}

	// Sized keywords. Longer prefixes go first so that "uint8" is not read as "int" + "8".
	// varint/varuint share the representation of int/uint.
	sized := []struct {
		prefix string
		make   func(int) (Type, error)
	}{
		{"fixedbytes", MakeFixedBytesType},
		{"varuint", MakeUintType},
		{"varint", MakeIntType},
		{"uint", MakeUintType},
		{"int", MakeIntType},
	}
	for _, s := range sized {
		if !strings.HasPrefix(lx.text, s.prefix) {
			continue
		}
		size, err := parseWidth(lx.text[len(s.prefix):])
		if err != nil {
			return Type{}, expectedParamType(p.descriptor, "bad width in %q", lx.text)
		}
		t, err := s.make(size)
		if err != nil {
			return Type{}, expectedParamType(p.descriptor, "%v", err)
		}
		return t, nil
	}
	return Type{}, expectedParamType(p.descriptor, "unknown type %q", lx.text)
}

func parseWidth(digits string) (int, error) {
	if digits == "" {
		return 0, strconv.ErrSyntax
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.Atoi(digits)
}
