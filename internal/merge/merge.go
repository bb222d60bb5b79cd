// Package merge implements the CRDT-style reconciliation algorithm: union
// of local and remote updates, same-user chained coalescing, LWW overlap
// resolution, then grouped offset-tracked application (spec.md §4.5).
package merge

import (
	"sort"

	"github.com/abhinavnagar29/synctext/internal/update"
)

// Apply reconciles lines with local and remote updates, returning the
// merged line vector and whether any survivor existed. lines is never
// mutated; the caller decides whether to adopt the result. local and
// remote are not mutated either — the editor loop owns clearing its own
// buffers once it adopts (or discards) the result.
func Apply(lines []string, local, remote []update.Ext) (merged []string, changed bool) {
	if len(local) == 0 && len(remote) == 0 {
		return append([]string(nil), lines...), false
	}

	all := make([]update.Ext, 0, len(local)+len(remote))
	all = append(all, local...)
	all = append(all, remote...)

	alive := coalesce(all)
	resolveOverlaps(all, alive)

	winners := make([]update.Ext, 0, len(all))
	for i, a := range alive {
		if a {
			winners = append(winners, all[i])
		}
	}

	out := append([]string(nil), lines...)
	applyGrouped(&out, winners)

	return out, len(winners) > 0
}

// coalesce fuses same-user, same-line, same-column sequential edits: if
// all[i]'s new_text equals all[j]'s old_text (i<j, same line, same uid,
// same col_start), i is extended in place (new_text, timestamp taken from
// j) and j is marked dead. Returns a liveness bitset, out-of-band rather
// than the in-band sentinel the original uses (spec.md §9).
func coalesce(all []update.Ext) []bool {
	alive := make([]bool, len(all))
	for i := range alive {
		alive[i] = true
	}
	for i := 0; i < len(all); i++ {
		if !alive[i] {
			continue
		}
		for j := i + 1; j < len(all); j++ {
			if !alive[j] {
				continue
			}
			a, b := all[i], all[j]
			if a.Line == b.Line && a.UID == b.UID && a.ColStart == b.ColStart && a.NewText == b.OldText {
				all[i].NewText = b.NewText
				all[i].TimestampNs = b.TimestampNs
				alive[j] = false
			}
		}
	}
	return alive
}

// resolveOverlaps marks the LWW loser of every overlapping pair of live
// updates as dead, in place on alive.
func resolveOverlaps(all []update.Ext, alive []bool) {
	for i := 0; i < len(all); i++ {
		if !alive[i] {
			continue
		}
		for j := i + 1; j < len(all); j++ {
			if !alive[j] {
				continue
			}
			if !overlaps(all[i], all[j]) {
				continue
			}
			if newerWins(all[i], all[j]) {
				alive[j] = false
			} else {
				alive[i] = false
				break
			}
		}
	}
}

// overlaps reports whether two updates target the same line and either
// are both pure insertions at the same column, or their half-open column
// ranges [cs, cs+len(old_text)) intersect.
func overlaps(a, b update.Ext) bool {
	if a.Line != b.Line {
		return false
	}
	if a.OldText == "" && b.OldText == "" && a.ColStart == b.ColStart {
		return true
	}
	aEnd := a.ColStart + int32(len(a.OldText))
	bEnd := b.ColStart + int32(len(b.OldText))
	return !(aEnd <= b.ColStart || bEnd <= a.ColStart)
}

// newerWins reports whether a should be kept over b: strictly greater
// timestamp wins; ties break to the lexicographically smaller uid.
func newerWins(a, b update.Ext) bool {
	if a.TimestampNs != b.TimestampNs {
		return a.TimestampNs > b.TimestampNs
	}
	return a.UID < b.UID
}

// applyGrouped partitions survivors by line, sorts each line's group by
// column ascending (ties by timestamp descending), and applies them
// left-to-right with running offset tracking, extending lines as needed.
func applyGrouped(lines *[]string, winners []update.Ext) {
	byLine := make(map[uint32][]update.Ext)
	maxLine := uint32(0)
	for _, u := range winners {
		byLine[u.Line] = append(byLine[u.Line], u)
		if u.Line > maxLine {
			maxLine = u.Line
		}
	}
	if len(winners) == 0 {
		return
	}
	for uint32(len(*lines)) <= maxLine {
		*lines = append(*lines, "")
	}

	lineNums := make([]uint32, 0, len(byLine))
	for ln := range byLine {
		lineNums = append(lineNums, ln)
	}
	sort.Slice(lineNums, func(i, j int) bool { return lineNums[i] < lineNums[j] })

	for _, ln := range lineNums {
		group := byLine[ln]
		sort.SliceStable(group, func(i, j int) bool {
			if group[i].ColStart != group[j].ColStart {
				return group[i].ColStart < group[j].ColStart
			}
			return group[i].TimestampNs > group[j].TimestampNs
		})

		cur := (*lines)[ln]
		offset := int32(0)
		for _, u := range group {
			curLen := int32(len(cur))
			adjCS := clamp32(u.ColStart+offset, 0, curLen)

			var adjCE int32
			if u.OldText == "" {
				// pure insertion: the replaced span is always zero-length,
				// regardless of where adjCS lands relative to curLen.
				adjCE = adjCS - 1
			} else {
				adjCE = u.ColEnd + offset
				if adjCE > curLen-1 {
					adjCE = curLen - 1
				}
				if adjCS > adjCE {
					continue // out-of-range replace/delete span: skip rather than error
				}
			}

			newLine := cur[:adjCS] + u.NewText
			spanLen := adjCE - adjCS + 1
			if adjCE+1 < curLen {
				newLine += cur[adjCE+1:]
			}
			offset += int32(len(u.NewText)) - spanLen
			cur = newLine
		}
		(*lines)[ln] = cur
	}
}

func clamp32(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
