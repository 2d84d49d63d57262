package sheet

import (
	"errors"
	"fmt"
	"strings"
)

// MaxCellLen is the length every non-identity cell is clamped to before the
// row is forwarded upstream.
const MaxCellLen = 1000

var cellEscaper = strings.NewReplacer("<", "&lt;", ">", "&gt;")

// ErrEmptyBatch is returned when a submission carries no rows at all.
var ErrEmptyBatch = errors.New("submission contains no rows")

// Sanitize prepares a submitted batch for forwarding. The identity cell of
// every row is overwritten with the authenticated username no matter what the
// client supplied, every other cell is clamped to MaxCellLen and has angle
// brackets escaped, and any structurally invalid row fails the whole batch.
// The input is never mutated; a fresh row set is returned.
func Sanitize(rows []Row, username string) ([]Row, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyBatch
	}
	out := make([]Row, 0, len(rows))
	for i, row := range rows {
		if len(row) == 0 {
			return nil, fmt.Errorf("row %d is empty", i)
		}
		clean := make(Row, len(row))
		clean[0] = username
		for j := 1; j < len(row); j++ {
			clean[j] = sanitizeCell(row[j])
		}
		out = append(out, clean)
	}
	return out, nil
}

func sanitizeCell(cell string) string {
	if len(cell) > MaxCellLen {
		// Clamp on runes so multibyte text is not split mid-character.
		if runes := []rune(cell); len(runes) > MaxCellLen {
			cell = string(runes[:MaxCellLen])
		}
	}
	return cellEscaper.Replace(cell)
}
