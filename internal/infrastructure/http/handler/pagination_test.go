package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageToken_RoundTrip(t *testing.T) {
	token := generatePageToken(40, true)
	require.NotNil(t, token)
	assert.Equal(t, 40, parsePageToken(*token))
}

func TestPageToken_LastPage(t *testing.T) {
	assert.Nil(t, generatePageToken(40, false))
}

func TestParsePageToken_Invalid(t *testing.T) {
	tests := map[string]string{
		"empty":      "",
		"not base64": "%%%",
		"not number": "YWJj",
		"negative":   "LTU=",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, 0, parsePageToken(token))
		})
	}
}
