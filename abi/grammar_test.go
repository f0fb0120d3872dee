package abi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTypeOf(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		descriptor string
		expected   string
		kind       Kind
	}{
		{descriptor: "bool", expected: "bool", kind: Bool},
		{descriptor: "uint128", expected: "uint128", kind: Uint},
		{descriptor: "int8", expected: "int8", kind: Int},
		{descriptor: "varuint16", expected: "uint16", kind: Uint},
		{descriptor: "int8[]", expected: "int8[]", kind: Array},
		{descriptor: "uint8[][3]", expected: "uint8[][3]", kind: FixedArray},
		{descriptor: "map(address,uint32)", expected: "map(address,uint32)", kind: Map},
		{descriptor: "map(int64, address[])", expected: "map(int64,address[])", kind: Map},
		{descriptor: "optional(cell)", expected: "optional(cell)", kind: Optional},
		{descriptor: "ref(string)", expected: "ref(string)", kind: Ref},
		{descriptor: "fixedbytes32", expected: "fixedbytes32", kind: FixedBytes},
		{descriptor: "token", expected: "gram", kind: Gram},
		{descriptor: "gram", expected: "gram", kind: Gram},
		{descriptor: "pubkey", expected: "pubkey", kind: PublicKey},
		{descriptor: "time", expected: "time", kind: Time},
		{descriptor: "expire", expected: "expire", kind: Expire},
		{descriptor: "bytes", expected: "bytes", kind: Bytes},
		{descriptor: "tuple[]", expected: "()[]", kind: Array},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.descriptor, func(t *testing.T) {
			t.Parallel()
			typ, err := TypeOf(testCase.descriptor)
			require.NoError(t, err)
			require.Equal(t, testCase.expected, typ.String())
			require.Equal(t, testCase.kind, typ.Kind())
		})
	}

	t.Run("nesting", func(t *testing.T) {
		t.Parallel()
		typ, err := TypeOf("uint8[][3]")
		require.NoError(t, err)
		require.Equal(t, 3, typ.Length())
		require.Equal(t, Array, typ.Elem().Kind())
		require.Equal(t, 8, typ.Elem().Elem().BitSize())

		typ, err = TypeOf("map(address,uint32)")
		require.NoError(t, err)
		require.Equal(t, Address, typ.Key().Kind())
		require.Equal(t, 32, typ.Elem().BitSize())
	})
}

func TestTypeOfErrors(t *testing.T) {
	t.Parallel()

	descriptors := []string{
		"",
		"uint",
		"uint0",
		"uint257",
		"int300",
		"uint8[",
		"uint8[x]",
		"uint8[0]",
		"map(cell,uint32)",
		"map(bool,uint32)",
		"map(uint32)",
		"optional(uint8",
		"fixedbytes0",
		"float64",
		"uint8]",
		"uint8 uint8",
		"адрес",
	}

	for _, descriptor := range descriptors {
		descriptor := descriptor
		t.Run(descriptor, func(t *testing.T) {
			t.Parallel()
			_, err := TypeOf(descriptor)
			require.Error(t, err)
			var grammarErr *GrammarError
			require.ErrorAs(t, err, &grammarErr)
			require.Equal(t, ExpectedParamType, grammarErr.Code)
			require.Equal(t, descriptor, grammarErr.Descriptor)
		})
	}
}

func TestSetComponents(t *testing.T) {
	t.Parallel()

	components := []Param{
		{Name: "a", Type: MakeBoolType()},
		{Name: "b", Type: mustType(t, "uint32")},
	}

	t.Run("nested tuple", func(t *testing.T) {
		t.Parallel()
		typ, err := TypeOf("map(uint8,tuple[])")
		require.NoError(t, err)
		typ, err = SetComponents(typ, components)
		require.NoError(t, err)
		require.Equal(t, "map(uint8,(bool,uint32)[])", typ.String())
		require.Len(t, typ.Elem().Elem().Fields(), 2)
	})

	t.Run("tuple without components", func(t *testing.T) {
		t.Parallel()
		_, err := SetComponents(mustType(t, "tuple"), nil)
		var grammarErr *GrammarError
		require.ErrorAs(t, err, &grammarErr)
		require.Equal(t, InvalidComponents, grammarErr.Code)
	})

	t.Run("components on scalar", func(t *testing.T) {
		t.Parallel()
		_, err := SetComponents(mustType(t, "uint8[]"), components)
		var grammarErr *GrammarError
		require.ErrorAs(t, err, &grammarErr)
		require.Equal(t, InvalidComponents, grammarErr.Code)
	})
}

func TestParseParams(t *testing.T) {
	t.Parallel()

	params, err := ParseParams([]byte(`[
		{"name": "owner", "type": "address"},
		{"name": "items", "type": "tuple[]", "components": [
			{"name": "id", "type": "uint64"},
			{"name": "tags", "type": "string[]"}
		]}
	]`))
	require.NoError(t, err)
	require.Len(t, params, 2)
	require.Equal(t, "address,(uint64,string[])[]", paramTypes(params))

	encoded, err := params[1].MarshalJSON()
	require.NoError(t, err)
	require.JSONEq(t, `{"name":"items","type":"tuple[]","components":[{"name":"id","type":"uint64"},{"name":"tags","type":"string[]"}]}`, string(encoded))

	_, err = ParseParams([]byte(`[{"name": "x", "type": "map(cell,bool)"}]`))
	require.Error(t, err)
}

func mustType(t *testing.T, descriptor string) Type {
	t.Helper()
	typ, err := TypeOf(descriptor)
	require.NoError(t, err)
	return typ
}
