package payload

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xssnick/tonutils-go/tvm/cell"

	"github.com/everscale-go/tvm-abi/boc"
)

func TestComment(t *testing.T) {
	t.Parallel()

	testCases := []string{
		"",
		"hello",
		"привет, мир",
		strings.Repeat("long comment ", 40),
	}

	for _, text := range testCases {
		text := text
		t.Run(text, func(t *testing.T) {
			t.Parallel()
			c, err := CommentCell(text)
			require.NoError(t, err)

			known, ok, err := ParseBOC(boc.Encode(c))
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, Comment, known.Kind)
			require.Equal(t, text, known.Text)
		})
	}
}

func TestCommentJSON(t *testing.T) {
	t.Parallel()

	c, err := CommentCell("thanks")
	require.NoError(t, err)
	known, ok := Parse(c)
	require.True(t, ok)

	encoded, err := json.Marshal(known)
	require.NoError(t, err)
	require.JSONEq(t, `{"type": "comment", "data": "thanks"}`, string(encoded))
}

func TestUnknownPayloads(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		cell *cell.Cell
	}{
		{name: "empty", cell: cell.BeginCell().EndCell()},
		{name: "other op", cell: cell.BeginCell().MustStoreUInt(0x0f8a7ea5, 32).EndCell()},
		{name: "partial byte", cell: cell.BeginCell().MustStoreUInt(0, 32).MustStoreUInt(1, 3).EndCell()},
		{name: "not utf8", cell: cell.BeginCell().MustStoreUInt(0, 32).MustStoreUInt(0xfffe, 16).EndCell()},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			known, ok := Parse(testCase.cell)
			require.False(t, ok)
			require.Nil(t, known)
		})
	}

	_, _, err := ParseBOC("%%%")
	require.Error(t, err)
}
