package usecase

import (
	"encoding/base64"
	"strings"
	"time"

	"github.com/iho/walletledger/internal/domain"
)

const cursorSeparator = "|"

// EncodeCursor renders a keyset position as an opaque URL-safe token.
func EncodeCursor(c domain.EntryCursor) string {
	raw := c.Date.UTC().Format(time.DateOnly) + cursorSeparator + c.ID
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a token produced by EncodeCursor.
func DecodeCursor(token string) (*domain.EntryCursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, domain.ErrInvalidCursor
	}

	date, id, ok := strings.Cut(string(raw), cursorSeparator)
	if !ok || id == "" {
		return nil, domain.ErrInvalidCursor
	}

	t, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return nil, domain.ErrInvalidCursor
	}

	return &domain.EntryCursor{Date: t, ID: id}, nil
}
