package abi

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

func TestMethodNameJSON(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		input    string
		expected MethodName
	}{
		{input: `"transfer"`, expected: KnownMethod("transfer")},
		{input: `["transfer", "burn"]`, expected: GuessInRange("transfer", "burn")},
		{input: `null`, expected: AnyMethod()},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.input, func(t *testing.T) {
			t.Parallel()
			var m MethodName
			require.NoError(t, json.Unmarshal([]byte(testCase.input), &m))
			require.Equal(t, testCase.expected, m)

			encoded, err := json.Marshal(m)
			require.NoError(t, err)
			require.JSONEq(t, testCase.input, string(encoded))
		})
	}

	var m MethodName
	require.ErrorContains(t, json.Unmarshal([]byte(`5`), &m), "expected string or array")
	require.Equal(t, "transfer", KnownMethod("transfer").String())
	require.Equal(t, []string{"a", "b"}, GuessInRange("a", "b").Names())
	require.Empty(t, AnyMethod().Names())
}

func TestMatchFunction(t *testing.T) {
	t.Parallel()

	c := loadWallet(t)
	burn := mustFunction(t, c, "burn")
	body, err := burn.EncodeInternalInput(mustTokens(t, burn.Inputs, `{"amount": 5}`))
	require.NoError(t, err)

	testCases := []struct {
		name    string
		method  MethodName
		matched string
	}{
		{name: "known", method: KnownMethod("burn"), matched: "burn"},
		{name: "known undeclared", method: KnownMethod("mint")},
		{name: "guess", method: GuessInRange("transfer", "burn"), matched: "burn"},
		{name: "guess with undeclared", method: GuessInRange("mint", "burn"), matched: "burn"},
		{name: "guess miss", method: GuessInRange("transfer", "getInfo")},
		{name: "any", method: AnyMethod(), matched: "burn"},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			f, ok := c.MatchFunction(body, testCase.method, true)
			decoded, err := c.DecodeInput(body, testCase.method, true)
			require.NoError(t, err)
			if testCase.matched == "" {
				require.False(t, ok)
				require.Nil(t, f)
				require.Nil(t, decoded)
				return
			}
			require.True(t, ok)
			require.Equal(t, testCase.matched, f.Name)
			require.Equal(t, testCase.matched, decoded.Method)
			require.Equal(t, "5", MakeJSONValue(decoded.Input)["amount"])
		})
	}

	_, ok := c.MatchFunction(cell.BeginCell().EndCell(), AnyMethod(), true)
	require.False(t, ok)

	t.Run("known name with another id", func(t *testing.T) {
		t.Parallel()
		f, ok := c.MatchFunction(body, KnownMethod("transfer"), true)
		require.True(t, ok)
		require.Equal(t, "transfer", f.Name)

		decoded, err := c.DecodeInput(body, KnownMethod("transfer"), true)
		var decodeErr *DecodeError
		require.ErrorAs(t, err, &decodeErr)
		require.ErrorContains(t, err, "wrong function id")
		require.Nil(t, decoded)
	})
}

func TestDecodeInputJSON(t *testing.T) {
	t.Parallel()

	c := loadWallet(t)
	burn := mustFunction(t, c, "burn")
	body, err := burn.EncodeInternalInput(mustTokens(t, burn.Inputs, `{"amount": "0x05"}`))
	require.NoError(t, err)

	decoded, err := c.DecodeInput(body, GuessInRange("transfer", "burn"), true)
	require.NoError(t, err)
	encoded, err := json.Marshal(decoded)
	require.NoError(t, err)
	require.JSONEq(t, `{"method": "burn", "input": {"amount": "5"}}`, string(encoded))
}

func TestDecodeExternalByMatch(t *testing.T) {
	t.Parallel()

	c := loadWallet(t)
	transfer := mustFunction(t, c, "transfer")
	header, err := transfer.MakeHeader(map[string]Value{"time": TimeValue(1), "expire": ExpireValue(2)})
	require.NoError(t, err)
	body, err := transfer.EncodeExternalInput(header, mustTokens(t, transfer.Inputs, transferValues), nil)
	require.NoError(t, err)

	decoded, err := c.DecodeInput(body, AnyMethod(), false)
	require.NoError(t, err)
	require.NotNil(t, decoded)
	require.Equal(t, "transfer", decoded.Method)
	require.Equal(t, true, MakeJSONValue(decoded.Input)["bounce"])

	decoded, err = c.DecodeInput(body, KnownMethod("burn"), false)
	require.ErrorContains(t, err, "wrong function id")
	require.Nil(t, decoded)

	decoded, err = c.DecodeInput(body, GuessInRange("burn"), false)
	require.NoError(t, err)
	require.Nil(t, decoded)
}

func TestDecodeOutputByMatch(t *testing.T) {
	t.Parallel()

	c := loadWallet(t)
	burn := mustFunction(t, c, "burn")
	body, err := burn.EncodeOutput(mustTokens(t, burn.Outputs, `{"remaining": 10}`))
	require.NoError(t, err)

	decoded, err := c.DecodeOutput(body, GuessInRange("transfer", "burn"))
	require.NoError(t, err)
	encoded, err := json.Marshal(decoded)
	require.NoError(t, err)
	require.JSONEq(t, `{"method": "burn", "output": {"remaining": "10"}}`, string(encoded))

	input, err := burn.EncodeInternalInput(mustTokens(t, burn.Inputs, `{"amount": 1}`))
	require.NoError(t, err)
	decoded, err = c.DecodeOutput(input, AnyMethod())
	require.NoError(t, err)
	require.Nil(t, decoded)
}

func TestEvents(t *testing.T) {
	t.Parallel()

	c := loadWallet(t)
	transferred := mustEvent(t, c, "Transferred")
	burned := mustEvent(t, c, "Burned")

	first, err := transferred.EncodeInput(mustTokens(t, transferred.Inputs, `{
		"to": "0:3333333333333333333333333333333333333333333333333333333333333333",
		"value": 3
	}`))
	require.NoError(t, err)
	second, err := burned.EncodeInput(mustTokens(t, burned.Inputs, `{"amount": 4}`))
	require.NoError(t, err)
	garbage := cell.BeginCell().MustStoreUInt(0xdeadbeef, 32).EndCell()
	truncated := cell.BeginCell().MustStoreUInt(uint64(burned.ID), 32).EndCell()

	_, err = c.DecodeEvent(truncated, AnyMethod())
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)

	event, err := c.DecodeEvent(second, AnyMethod())
	require.NoError(t, err)
	encoded, err := json.Marshal(event)
	require.NoError(t, err)
	require.JSONEq(t, `{"event": "Burned", "data": {"amount": "4"}}`, string(encoded))

	event, err = c.DecodeEvent(second, KnownMethod("Transferred"))
	require.ErrorContains(t, err, "wrong function id")
	require.Nil(t, event)

	event, err = c.DecodeEvent(second, KnownMethod("Minted"))
	require.NoError(t, err)
	require.Nil(t, event)

	event, err = c.DecodeEvent(second, GuessInRange("Transferred", "Burned"))
	require.NoError(t, err)
	require.Equal(t, "Burned", event.Event)

	events := c.ScanEvents([]*cell.Cell{first, garbage, truncated, second})
	require.Len(t, events, 2)
	require.Equal(t, "Transferred", events[0].Event)
	require.Equal(t, "Burned", events[1].Event)
}
