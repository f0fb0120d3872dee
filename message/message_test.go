package message

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xssnick/tonutils-go/tvm/cell"

	"github.com/everscale-go/tvm-abi/abi"
	"github.com/everscale-go/tvm-abi/address"
	"github.com/everscale-go/tvm-abi/boc"
	"github.com/everscale-go/tvm-abi/clock"
)

const walletABI = `{
	"ABI version": 2,
	"version": "2.2",
	"header": ["time", "expire", "pubkey"],
	"functions": [
		{
			"name": "transfer",
			"inputs": [
				{"name": "dest", "type": "address"},
				{"name": "value", "type": "uint128"}
			],
			"outputs": []
		},
		{
			"name": "getBalance",
			"inputs": [{"name": "answerId", "type": "uint32"}],
			"outputs": [{"name": "balance", "type": "uint128"}]
		}
	],
	"data": [
		{"key": 1, "name": "owner", "type": "address"},
		{"key": 2, "name": "nonce", "type": "uint32"}
	],
	"events": []
}`

const destination = "0:3333333333333333333333333333333333333333333333333333333333333333"

var fixedNow = time.Unix(1700000000, 500*int64(time.Millisecond))

func loadWallet(t *testing.T) *abi.Contract {
	t.Helper()
	c, err := abi.LoadContract([]byte(walletABI))
	require.NoError(t, err)
	return c
}

func transferCall(t *testing.T) (*abi.Function, []abi.Token, address.Address) {
	t.Helper()
	fn, ok := loadWallet(t).Function("transfer")
	require.True(t, ok)
	inputs, err := abi.UnmarshalTokensFromJSON(fn.Inputs, []byte(`{"dest": "`+destination+`", "value": 100}`))
	require.NoError(t, err)
	dst, err := address.FromString(destination)
	require.NoError(t, err)
	return fn, inputs, dst
}

type keySigner ed25519.PrivateKey

func (k keySigner) Sign(hash []byte) ([]byte, error) {
	return ed25519.Sign(ed25519.PrivateKey(k), hash), nil
}

type failingSigner struct{}

func (failingSigner) Sign([]byte) ([]byte, error) {
	return nil, errors.New("key is locked")
}

func TestCreateExternalMessageWithoutSignature(t *testing.T) {
	t.Parallel()

	fn, inputs, dst := transferCall(t)
	msg, err := NewBuilder(clock.Fixed(fixedNow)).CreateExternalMessageWithoutSignature(dst, fn, nil, inputs, 60)
	require.NoError(t, err)
	require.EqualValues(t, 1700000060, msg.ExpireAt)

	decoded, err := fn.DecodeExternalInput(msg.Body)
	require.NoError(t, err)
	require.Nil(t, decoded.Signature)
	require.Equal(t, abi.TimeValue(1700000000500), decoded.Header[0].Value)
	require.Equal(t, abi.ExpireValue(1700000060), decoded.Header[1].Value)
	require.Equal(t, abi.PublicKeyValue{}, decoded.Header[2].Value)

	input, err := abi.MarshalTokensToJSON(decoded.Input)
	require.NoError(t, err)
	require.JSONEq(t, `{"dest": "`+destination+`", "value": "100"}`, string(input))
}

func TestMessageCell(t *testing.T) {
	t.Parallel()

	fn, inputs, dst := transferCall(t)
	b := NewBuilder(clock.Fixed(fixedNow))

	t.Run("without state init", func(t *testing.T) {
		t.Parallel()
		msg, err := b.CreateExternalMessageWithoutSignature(dst, fn, nil, inputs, 60)
		require.NoError(t, err)
		c, err := msg.Cell()
		require.NoError(t, err)

		s := c.BeginParse()
		tag, err := s.LoadUInt(2)
		require.NoError(t, err)
		require.EqualValues(t, 0b10, tag)
		src, err := address.Load(s)
		require.NoError(t, err)
		require.Nil(t, src)
		loadedDst, err := address.Load(s)
		require.NoError(t, err)
		require.Equal(t, dst, *loadedDst)
		fee, err := s.LoadBigCoins()
		require.NoError(t, err)
		require.Zero(t, fee.Sign())
		hasInit, err := s.LoadBoolBit()
		require.NoError(t, err)
		require.False(t, hasInit)
		bodyInRef, err := s.LoadBoolBit()
		require.NoError(t, err)
		require.True(t, bodyInRef)
		body, err := s.LoadRefCell()
		require.NoError(t, err)
		require.Equal(t, msg.Body.Hash(), body.Hash())
	})

	t.Run("with state init", func(t *testing.T) {
		t.Parallel()
		si := &StateInit{Code: cell.BeginCell().MustStoreUInt(0xc0de, 16).EndCell()}
		msg, err := b.CreateExternalMessageWithoutSignature(dst, fn, si, inputs, 60)
		require.NoError(t, err)
		c, err := msg.Cell()
		require.NoError(t, err)
		require.EqualValues(t, 2, c.RefsNum())

		s := c.BeginParse()
		siCell, err := s.LoadRefCell()
		require.NoError(t, err)
		loaded, err := LoadStateInit(siCell)
		require.NoError(t, err)
		require.Equal(t, si.Code.Hash(), loaded.Code.Hash())
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		msg, err := b.CreateExternalMessageWithoutSignature(dst, fn, nil, inputs, 60)
		require.NoError(t, err)
		encoded, err := json.Marshal(msg)
		require.NoError(t, err)

		var res struct {
			Hash     string `json:"hash"`
			ExpireAt uint32 `json:"expireAt"`
			Boc      string `json:"boc"`
		}
		require.NoError(t, json.Unmarshal(encoded, &res))
		require.EqualValues(t, 1700000060, res.ExpireAt)
		hash, err := boc.Hash(res.Boc)
		require.NoError(t, err)
		require.Equal(t, res.Hash, hash)

		msgHash, err := msg.Hash()
		require.NoError(t, err)
		require.Equal(t, msgHash, res.Hash)
	})
}

func TestCreateExternalMessage(t *testing.T) {
	t.Parallel()

	fn, inputs, dst := transferCall(t)
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	unsigned, err := NewBuilder(clock.Fixed(fixedNow)).CreateExternalMessage(dst, fn, nil, inputs, pub, 30)
	require.NoError(t, err)
	require.EqualValues(t, 1700000030, unsigned.ExpireAt)

	encoded, err := json.Marshal(unsigned)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"address": "`+destination+`",
		"expireAt": 1700000030,
		"hash": "`+hex.EncodeToString(unsigned.Hash())+`"
	}`, string(encoded))

	t.Run("sign", func(t *testing.T) {
		t.Parallel()
		msg, err := unsigned.Sign(keySigner(priv))
		require.NoError(t, err)
		require.Equal(t, unsigned.ExpireAt, msg.ExpireAt)

		decoded, err := fn.DecodeExternalInput(msg.Body)
		require.NoError(t, err)
		require.True(t, ed25519.Verify(pub, unsigned.Hash(), decoded.Signature))
		require.Equal(t, abi.PublicKeyValue{Key: pub}, decoded.Header[2].Value)
	})

	t.Run("complete", func(t *testing.T) {
		t.Parallel()
		signature := ed25519.Sign(priv, unsigned.Hash())
		msg, err := unsigned.Complete(signature)
		require.NoError(t, err)
		signed, err := unsigned.Sign(keySigner(priv))
		require.NoError(t, err)
		require.Equal(t, msg.Body.Hash(), signed.Body.Hash())
	})

	t.Run("bad signatures", func(t *testing.T) {
		t.Parallel()
		_, err := unsigned.Complete([]byte{1, 2, 3})
		require.ErrorContains(t, err, "signature must be 64 bytes")

		_, other, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		_, err = unsigned.Complete(ed25519.Sign(other, unsigned.Hash()))
		require.ErrorContains(t, err, "signature does not match public key")

		_, err = unsigned.Sign(failingSigner{})
		require.ErrorContains(t, err, "key is locked")
	})

	t.Run("bad public key", func(t *testing.T) {
		t.Parallel()
		builder := NewBuilder(clock.Fixed(fixedNow))
		_, err := builder.CreateExternalMessage(dst, fn, nil, inputs, nil, 30)
		require.ErrorContains(t, err, "public key must be 32 bytes, got 0")

		_, err = builder.CreateExternalMessage(dst, fn, nil, inputs, pub[:31], 30)
		require.ErrorContains(t, err, "public key must be 32 bytes, got 31")

		keyless := &UnsignedMessage{Destination: dst, payload: unsigned.Payload()}
		_, err = keyless.Complete(make([]byte, ed25519.SignatureSize))
		require.ErrorContains(t, err, "public key must be 32 bytes, got 0")
	})
}

func TestExpirationOverflow(t *testing.T) {
	t.Parallel()

	fn, inputs, dst := transferCall(t)
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	builder := NewBuilder(clock.Fixed(time.Unix(math.MaxUint32-10, 0)))
	_, err = builder.CreateExternalMessageWithoutSignature(dst, fn, nil, inputs, 30)
	require.ErrorContains(t, err, "does not fit in 32 bits")
	_, err = builder.CreateExternalMessage(dst, fn, nil, inputs, pub, 30)
	require.ErrorContains(t, err, "does not fit in 32 bits")

	msg, err := builder.CreateExternalMessageWithoutSignature(dst, fn, nil, inputs, 10)
	require.NoError(t, err)
	require.EqualValues(t, uint32(math.MaxUint32), msg.ExpireAt)
}

func TestEncodeInternalInput(t *testing.T) {
	t.Parallel()

	fn, inputs, _ := transferCall(t)
	encoded, err := EncodeInternalInput(fn, inputs)
	require.NoError(t, err)

	body, err := boc.Decode(encoded)
	require.NoError(t, err)
	decoded, err := fn.DecodeInput(body, true)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
}

type fakeExecutor struct {
	t      *testing.T
	output *ExecutionOutput
	err    error
}

func (e *fakeExecutor) Execute(_ context.Context, account *cell.Cell, fn *abi.Function, body *cell.Cell, responsible bool) (*ExecutionOutput, error) {
	id, err := abi.ReadFunctionID(body)
	require.NoError(e.t, err)
	require.Equal(e.t, fn.InputID, id)
	require.True(e.t, responsible)
	require.NotNil(e.t, account)
	return e.output, e.err
}

func TestRunLocal(t *testing.T) {
	t.Parallel()

	fn, ok := loadWallet(t).Function("getBalance")
	require.True(t, ok)
	inputs, err := abi.UnmarshalTokensFromJSON(fn.Inputs, []byte(`{"answerId": 0}`))
	require.NoError(t, err)
	outputs, err := abi.UnmarshalTokensFromJSON(fn.Outputs, []byte(`{"balance": "500"}`))
	require.NoError(t, err)
	account := cell.BeginCell().EndCell()

	executor := &fakeExecutor{t: t, output: &ExecutionOutput{Output: outputs}}
	res, err := RunLocal(context.Background(), executor, account, fn, inputs, true)
	require.NoError(t, err)
	encoded, err := json.Marshal(res)
	require.NoError(t, err)
	require.JSONEq(t, `{"output": {"balance": "500"}, "code": 0}`, string(encoded))

	encoded, err = json.Marshal(&ExecutionOutput{Code: 60})
	require.NoError(t, err)
	require.JSONEq(t, `{"output": null, "code": 60}`, string(encoded))

	failing := &fakeExecutor{t: t, err: errors.New("out of gas")}
	_, err = RunLocal(context.Background(), failing, account, fn, inputs, true)
	require.ErrorContains(t, err, `cannot run "getBalance" locally: out of gas`)
}
