package mockbank

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	id "digibank/pkg/domain"
	dErrors "digibank/pkg/domain-errors"
)

const (
	DefaultPageSize = 25
	MaxPageSize     = 100
)

// cursor is the position of the last item on a page.
type cursor struct {
	createdAt time.Time
	id        id.TransferID
}

// before reports whether t sorts after the cursor in newest-first order.
func (c cursor) before(t *transfer) bool {
	if t.CreatedAt.Before(c.createdAt) {
		return true
	}
	return t.CreatedAt.Equal(c.createdAt) && t.ID < c.id
}

func encodeCursor(c cursor) string {
	raw := fmt.Sprintf("%d:%d", c.createdAt.UnixMilli(), c.id)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(s string) (cursor, error) {
	invalid := dErrors.New(dErrors.CodeBadRequest, "invalid cursor")
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return cursor{}, invalid
	}
	millis, idPart, ok := strings.Cut(string(raw), ":")
	if !ok {
		return cursor{}, invalid
	}
	ms, err := strconv.ParseInt(millis, 10, 64)
	if err != nil {
		return cursor{}, invalid
	}
	tid, err := id.ParseTransferID(idPart)
	if err != nil {
		return cursor{}, invalid
	}
	return cursor{createdAt: time.UnixMilli(ms).UTC(), id: tid}, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultPageSize
	case limit > MaxPageSize:
		return MaxPageSize
	default:
		return limit
	}
}
