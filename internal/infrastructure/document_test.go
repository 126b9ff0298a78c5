package infrastructure

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentKind(t *testing.T) {
	assert.Equal(t, "pdf", DocumentKind("FAQ.PDF"))
	assert.Equal(t, "text", DocumentKind("faq.txt"))
	assert.Equal(t, "csv", DocumentKind("faq.csv"))
	assert.Equal(t, "", DocumentKind("faq.docx"))
}

func TestExtractDocumentText_Text(t *testing.T) {
	text, err := ExtractDocumentText(context.Background(), "faq.txt", []byte("Q: Hi?\nA: Hello."))
	require.NoError(t, err)
	assert.Equal(t, "Q: Hi?\nA: Hello.", text)

	_, err = ExtractDocumentText(context.Background(), "faq.txt", []byte("  \n"))
	assert.ErrorIs(t, err, ErrEmptyDocument)

	_, err = ExtractDocumentText(context.Background(), "faq.txt", []byte{0xff, 0xfe})
	assert.Error(t, err)
}

func TestExtractDocumentText_Unsupported(t *testing.T) {
	_, err := ExtractDocumentText(context.Background(), "faq.docx", []byte("x"))
	assert.True(t, errors.Is(err, ErrUnsupportedDocument))
}

func TestExtractDocumentText_BadPDF(t *testing.T) {
	_, err := ExtractDocumentText(context.Background(), "faq.pdf", []byte("not a pdf"))
	assert.Error(t, err)
}
