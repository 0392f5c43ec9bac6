package sim

import (
	"fmt"
	"strings"
)

// MatchID builds the deterministic key for a match. It doubles as the
// simulation seed and as the primary key for persisted results, so the
// format must stay stable: any change reshuffles every historical match.
func MatchID(leagueCode string, weekIdx, slot int, home, away string) string {
	return fmt.Sprintf("league-%s-week-%d-match-%d-%s-vs-%s",
		sanitize(leagueCode), weekIdx+1, slot, sanitize(home), sanitize(away))
}

// sanitize lowercases a name and collapses anything that is not a letter
// or digit into single dashes, keeping the id URL- and key-safe.
func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
