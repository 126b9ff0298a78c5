package faq

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSV_Header(t *testing.T) {
	in := `category,question,answer,keywords
Billing,What payment methods do you accept?,"Cards, PayPal and bank transfer.",payment; card
,How do I reset my password?,Use the reset link on the login page.,
Account,,missing question,
`
	entries, err := ParseCSV(strings.NewReader(in), "faq.csv")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "Billing", entries[0].Category)
	assert.Equal(t, "Cards, PayPal and bank transfer.", entries[0].Answer)
	assert.Equal(t, []string{"payment", "card"}, entries[0].Keywords)
	assert.Equal(t, "faq.csv", entries[0].Source)
	assert.True(t, entries[0].IsActive)

	assert.Equal(t, DefaultCategory, entries[1].Category)
	assert.Contains(t, entries[1].Keywords, "reset")
}

func TestParseCSV_Positional(t *testing.T) {
	in := "Where are you located?,We are online only.,Company\n"
	entries, err := ParseCSV(strings.NewReader(in), "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Company", entries[0].Category)
}

func TestParseCSV_Errors(t *testing.T) {
	_, err := ParseCSV(strings.NewReader(""), "")
	assert.Error(t, err)

	_, err = ParseCSV(strings.NewReader("question,category\nhi,General\n"), "")
	assert.Error(t, err)
}
