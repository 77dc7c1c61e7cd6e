package fedora

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bookingest/internal/core/domain"
)

func TestParse(t *testing.T) {
	doc := "\xef\xbb\xbf10\t20\t30\t40\tHello\r\n" +
		"x\ty\tw\th\tcontent\r\n" +
		"only\tfour\tfields\there\r\n" +
		"50\t60\t70\t80\tWorld\r\n"

	words, err := New().Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, words, 2)

	assert.Equal(t, domain.Word{
		Content: "Hello", X: 10, Y: 20, W: 30, H: 40, ResourceType: domain.ResourceWord,
	}, words[0])
	assert.Equal(t, "World", words[1].Content)
}

func TestParse_BadNumber(t *testing.T) {
	_, err := New().Parse([]byte("a\t2\t3\t4\tword\r\n"))
	assert.ErrorIs(t, err, domain.ErrOCRParse)
}

func TestParse_Empty(t *testing.T) {
	words, err := New().Parse(BOM)
	require.NoError(t, err)
	assert.Empty(t, words)
}
