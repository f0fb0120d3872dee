package boc

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	child := cell.BeginCell().MustStoreUInt(7, 3).EndCell()
	b := cell.BeginCell().MustStoreUInt(0xdeadbeef, 32)
	require.NoError(t, b.StoreRef(child))
	root := b.EndCell()

	encoded := Encode(root)
	decoded, err := Decode(encoded)
	require.NoError(t, err)
	require.Equal(t, root.Hash(), decoded.Hash())

	hash, err := Hash(encoded)
	require.NoError(t, err)
	require.Equal(t, HashOf(root), hash)
	require.Len(t, hash, 64)
}

func TestDecodeErrors(t *testing.T) {
	t.Parallel()

	_, err := Decode("!!!")
	require.ErrorContains(t, err, "base64 decode error")

	_, err = Decode("AAEC")
	require.ErrorContains(t, err, "cannot decode boc")
}

func TestFromSlice(t *testing.T) {
	t.Parallel()

	child := cell.BeginCell().MustStoreUInt(1, 1).EndCell()
	b := cell.BeginCell().MustStoreUInt(0xab, 8).MustStoreUInt(5, 4)
	require.NoError(t, b.StoreRef(child))
	root := b.EndCell()

	s := root.BeginParse()
	_, err := s.LoadUInt(8)
	require.NoError(t, err)

	rest, err := FromSlice(s)
	require.NoError(t, err)
	require.EqualValues(t, 4, rest.BitsSize())
	require.EqualValues(t, 1, rest.RefsNum())

	got, err := rest.BeginParse().LoadUInt(4)
	require.NoError(t, err)
	require.Equal(t, uint64(5), got)
}
