package usecase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

func TestCursorRoundTrip(t *testing.T) {
	in := domain.EntryCursor{Date: date(2024, 2, 29), ID: "01HZY|with-separator"}

	token := usecase.EncodeCursor(in)
	assert.NotContains(t, token, "|")

	out, err := usecase.DecodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, in.Date, out.Date)
	assert.Equal(t, in.ID, out.ID)
}

func TestDecodeCursor_Invalid(t *testing.T) {
	for _, token := range []string{"", "not base64!", "MjAyNC0wMi0yOQ", "eHx5"} {
		_, err := usecase.DecodeCursor(token)
		assert.ErrorIs(t, err, domain.ErrInvalidCursor, token)
	}
}
