// Package change diffs the previous-known line vector against a freshly
// read file to produce minimal-span update records (spec.md §4.4).
package change

import (
	"github.com/abhinavnagar29/synctext/internal/update"
	"github.com/abhinavnagar29/synctext/internal/wire"
)

// Detect compares prev against cur line-by-line and returns the list of
// changes needed to turn prev into cur, plus the last change for display
// (nil if nothing changed). Trailing blank-line additions/deletions are
// ignored, matching the original's policy (spec.md §4.4, §9).
func Detect(prev, cur []string, uid string, timestampStr string, nowNs func() uint64) ([]update.Change, *update.Change) {
	var changes []update.Change
	var last *update.Change

	common := len(prev)
	if len(cur) < common {
		common = len(cur)
	}
	for i := 0; i < common; i++ {
		oldL, newL := prev[i], cur[i]
		if oldL == newL {
			continue
		}
		c, ok := diffLine(uint32(i), oldL, newL, uid, timestampStr, nowNs())
		if !ok {
			continue
		}
		changes = append(changes, c)
		last = &changes[len(changes)-1]
	}

	for i := len(prev); i < len(cur); i++ {
		if cur[i] == "" {
			continue // ignore trailing empty-line insertions
		}
		c := update.Change{
			Ext: update.Ext{
				TimestampNs: nowNs(),
				UID:         uid,
				Line:        uint32(i),
				ColStart:    0,
				ColEnd:      0,
				Op:          wire.OpInsert,
				OldText:     "",
				NewText:     cur[i],
			},
			TimestampStr: timestampStr,
		}
		changes = append(changes, c)
		last = &changes[len(changes)-1]
	}

	for i := len(cur); i < len(prev); i++ {
		if prev[i] == "" {
			continue // ignore trailing empty-line deletions
		}
		c := update.Change{
			Ext: update.Ext{
				TimestampNs: nowNs(),
				UID:         uid,
				Line:        uint32(i),
				ColStart:    0,
				ColEnd:      int32(len(prev[i])) - 1,
				Op:          wire.OpDelete,
				OldText:     prev[i],
				NewText:     "",
			},
			TimestampStr: timestampStr,
		}
		changes = append(changes, c)
		last = &changes[len(changes)-1]
	}

	return changes, last
}

// diffLine computes the minimal-span change between two differing lines:
// the longest common prefix cs, the longest common suffix tail (bounded so
// cs+tail doesn't exceed either line's length), and the resulting
// old/new segment and op kind.
func diffLine(line uint32, oldL, newL, uid, timestampStr string, ns uint64) (update.Change, bool) {
	oldLen, newLen := len(oldL), len(newL)

	cs := 0
	maxCommonLeft := oldLen
	if newLen < maxCommonLeft {
		maxCommonLeft = newLen
	}
	for cs < maxCommonLeft && oldL[cs] == newL[cs] {
		cs++
	}

	tail := 0
	for tail < (oldLen-cs) && tail < (newLen-cs) && oldL[oldLen-1-tail] == newL[newLen-1-tail] {
		tail++
	}

	oldMidLen := oldLen - cs - tail
	newMidLen := newLen - cs - tail
	var oldSeg, newSeg string
	if oldMidLen > 0 {
		oldSeg = oldL[cs : cs+oldMidLen]
	}
	if newMidLen > 0 {
		newSeg = newL[cs : cs+newMidLen]
	}
	if oldSeg == newSeg {
		return update.Change{}, false
	}

	var op wire.OpKind
	switch {
	case oldSeg == "" && newSeg != "":
		op = wire.OpInsert
	case oldSeg != "" && newSeg == "":
		op = wire.OpDelete
	default:
		op = wire.OpReplace
	}

	colEnd := int32(cs)
	if oldSeg != "" {
		colEnd = int32(cs + len(oldSeg) - 1)
	}

	return update.Change{
		Ext: update.Ext{
			TimestampNs: ns,
			UID:         uid,
			Line:        line,
			ColStart:    int32(cs),
			ColEnd:      colEnd,
			Op:          op,
			OldText:     oldSeg,
			NewText:     newSeg,
		},
		TimestampStr: timestampStr,
	}, true
}
