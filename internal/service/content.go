package service

import (
	"unicode/utf8"

	"github.com/Marga-Ghale/protolab-backend/internal/repository"
	"github.com/Marga-Ghale/protolab-backend/internal/types"
)

// applyChange returns content with an approved change applied. Content is
// plain text addressed by rune offset; positions past the end clamp to it.
//
//	insert  - change.Content is spliced in at Position
//	delete  - Length runes (default: rune length of Content) removed at Position
//	replace - Length runes (default: rune length of Content) replaced by Content
//	format  - text is left as is
func applyChange(content string, change *repository.DocumentChange) string {
	runes := []rune(content)
	pos := clamp(change.Position, 0, len(runes))

	span := change.Length
	if span <= 0 {
		span = utf8.RuneCountInString(change.Content)
	}
	end := clamp(pos+span, pos, len(runes))

	switch change.Type {
	case types.ChangeInsert:
		return string(runes[:pos]) + change.Content + string(runes[pos:])
	case types.ChangeDelete:
		return string(runes[:pos]) + string(runes[end:])
	case types.ChangeReplace:
		return string(runes[:pos]) + change.Content + string(runes[end:])
	default:
		return content
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
