package abi

import (
	"crypto/ed25519"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUnmarshalFromJSON(t *testing.T) {
	t.Parallel()
	var testCases = []struct {
		input    string
		typeStr  string
		expected string
	}{
		{input: `17`, typeStr: `uint64`, expected: `"17"`},
		{input: `"17"`, typeStr: `uint64`, expected: `"17"`},
		{input: `"0x11"`, typeStr: `uint64`, expected: `"17"`},
		{input: `"-0x11"`, typeStr: `int64`, expected: `"-17"`},
		{input: `-128`, typeStr: `int8`, expected: `"-128"`},
		{
			input:    `"115792089237316195423570985008687907853269984665640564039457584007913129639935"`,
			typeStr:  `uint256`,
			expected: `"115792089237316195423570985008687907853269984665640564039457584007913129639935"`,
		},
		{input: `"1000"`, typeStr: `token`, expected: `"1000"`},
		{input: `1700000000000`, typeStr: `time`, expected: `"1700000000000"`},
		{input: `"1700000060"`, typeStr: `expire`, expected: `1700000060`},
		{input: `true`, typeStr: `bool`, expected: `true`},
		{input: `"AAEC"`, typeStr: `bytes`, expected: `"AAEC"`},
		{input: `"AQEEBQEE"`, typeStr: `fixedbytes6`, expected: `"AQEEBQEE"`},
		{input: `"pistachio"`, typeStr: `string`, expected: `"pistachio"`},
		{input: `""`, typeStr: `address`, expected: `""`},
		{
			input:    `"0:3333333333333333333333333333333333333333333333333333333333333333"`,
			typeStr:  `address`,
			expected: `"0:3333333333333333333333333333333333333333333333333333333333333333"`,
		},
		{input: `null`, typeStr: `pubkey`, expected: `null`},
		{input: `""`, typeStr: `pubkey`, expected: `null`},
		{input: `[0, "1", "0x2"]`, typeStr: `uint8[]`, expected: `["0", "1", "2"]`},
		{input: `[]`, typeStr: `bool[]`, expected: `[]`},
		{input: `[[true], [false]]`, typeStr: `bool[][2]`, expected: `[[true], [false]]`},
		{input: `{"2": true, "10": false}`, typeStr: `map(uint32,bool)`, expected: `{"2": true, "10": false}`},
		{input: `{"-1": "x"}`, typeStr: `map(int8,string)`, expected: `{"-1": "x"}`},
		{input: `null`, typeStr: `optional(uint8)`, expected: `null`},
		{input: `5`, typeStr: `optional(uint8)`, expected: `"5"`},
		{input: `[1, null]`, typeStr: `optional(uint8)[]`, expected: `["1", null]`},
		{input: `"9"`, typeStr: `ref(uint8)`, expected: `"9"`},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.typeStr+" "+testCase.input, func(t *testing.T) {
			t.Parallel()
			typ, err := TypeOf(testCase.typeStr)
			require.NoError(t, err)
			value, err := typ.UnmarshalFromJSON([]byte(testCase.input))
			require.NoError(t, err)
			encoded, err := typ.MarshalToJSON(value)
			require.NoError(t, err)
			require.JSONEq(t, testCase.expected, string(encoded))
		})
	}
}

func TestUnmarshalFromJSONErrors(t *testing.T) {
	t.Parallel()
	var testCases = []struct {
		input   string
		typeStr string
	}{
		{input: `1.5`, typeStr: `uint8`},
		{input: `"12abc"`, typeStr: `uint8`},
		{input: `"0x"`, typeStr: `uint8`},
		{input: `"+5"`, typeStr: `int8`},
		{input: `true`, typeStr: `uint8`},
		{input: `1`, typeStr: `bool`},
		{input: `"not base64!"`, typeStr: `bytes`},
		{input: `"00"`, typeStr: `pubkey`},
		{input: `"zz"`, typeStr: `pubkey`},
		{input: `{"abc": true}`, typeStr: `map(uint8,bool)`},
		{input: `{"300": true}`, typeStr: `map(uint8,bool)`},
		{input: `[1]`, typeStr: `map(uint8,bool)`},
		{input: `"-1"`, typeStr: `time`},
		{input: `4294967296`, typeStr: `expire`},
		{input: `1 2`, typeStr: `uint8`},
		{input: `5`, typeStr: `cell`},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.typeStr+" "+testCase.input, func(t *testing.T) {
			t.Parallel()
			typ, err := TypeOf(testCase.typeStr)
			require.NoError(t, err)
			_, err = typ.UnmarshalFromJSON([]byte(testCase.input))
			require.Error(t, err)
		})
	}
}

func TestTupleJSON(t *testing.T) {
	t.Parallel()

	params := mustParams(t, `[{"name": "p", "type": "tuple", "components": [
		{"name": "x", "type": "int16"},
		{"name": "label", "type": "string"}
	]}]`)

	byName := mustTokens(t, params, `{"p": {"x": -3, "label": "a"}}`)
	positional := mustTokens(t, params, `{"p": [-3, "a"]}`)
	requireSameTokens(t, byName, positional)

	encoded, err := MarshalTokensToJSON(byName)
	require.NoError(t, err)
	require.JSONEq(t, `{"p": {"x": "-3", "label": "a"}}`, string(encoded))

	_, err = UnmarshalTokensFromJSON(params, []byte(`{"p": [1]}`))
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	require.Equal(t, "p", schemaErr.Field)
}

func TestParseTokensWithoutParams(t *testing.T) {
	t.Parallel()

	tokens, err := ParseTokens(nil, nil)
	require.NoError(t, err)
	require.Empty(t, tokens)

	tokens, err = UnmarshalTokensFromJSON(nil, []byte(`{}`))
	require.NoError(t, err)
	require.Empty(t, tokens)

	_, err = UnmarshalTokensFromJSON(nil, []byte(`[]`))
	require.Error(t, err)
}

func TestCheckPublicKey(t *testing.T) {
	t.Parallel()

	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	key, err := CheckPublicKey(hex.EncodeToString(pub))
	require.NoError(t, err)
	require.Equal(t, pub, key)

	_, err = CheckPublicKey("xyz")
	require.ErrorContains(t, err, "hex decode error")

	_, err = CheckPublicKey("0011")
	require.ErrorContains(t, err, "public key must be 32 bytes")
}
