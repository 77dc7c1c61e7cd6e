package dict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bookingest/internal/core/domain"
)

func TestIsObject(t *testing.T) {
	assert.True(t, IsObject([]byte(` {"ocr": []} `)))
	assert.False(t, IsObject([]byte(`[1, 2]`)))
	assert.False(t, IsObject([]byte(`{"ocr": `)))
	assert.False(t, IsObject([]byte("content\tx\n")))
}

func TestParse_Words(t *testing.T) {
	doc := `{"ocr": [[["Hello", [10, 50, 60, 20]], ["world", [70, 50, 130, 20]]], [], [[1984, [0, 9, 4, 1]]]]}`

	words, err := New().Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, words, 3)

	assert.Equal(t, domain.Word{
		Content: "Hello", X: 10, Y: 20, W: 50, H: 30, ResourceType: domain.ResourceWord,
	}, words[0])
	assert.Equal(t, "world", words[1].Content)
	assert.Equal(t, "1984", words[2].Content)
	assert.Equal(t, 8, words[2].H)
}

func TestParse_NoOCRKey(t *testing.T) {
	for _, doc := range []string{`{}`, `{"ocr": null}`} {
		words, err := New().Parse([]byte(doc))
		require.NoError(t, err)
		assert.Empty(t, words)
	}
}

func TestParse_Malformed(t *testing.T) {
	for _, doc := range []string{`{"ocr": [[["a", [1, 2]]]]}`, `{"ocr": [[["a"]]]}`, `not json`} {
		_, err := New().Parse([]byte(doc))
		assert.ErrorIs(t, err, domain.ErrOCRParse, doc)
	}
}
