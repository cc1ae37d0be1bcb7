package query

import "unicode/utf8"

// matchLike implements SQL LIKE matching as an iterative two-pointer
// scan directly over the pattern and text bytes: O(n·m) worst case,
// O(1) auxiliary memory. There is no compiled op slice and no copied
// rune slice — pi/ti/starPattern/starText are the only state, and
// "%%" escaping is resolved inline, by peeking one byte ahead, every
// time pi revisits that position rather than once up front.
func matchLike(text, pattern string) (bool, error) {
	ti, pi := 0, 0
	starPattern, starText := -1, 0

	for ti < len(text) {
		if pi < len(pattern) {
			switch pattern[pi] {
			case '%':
				if isEscapedPercent(pattern, pi) {
					if text[ti] == '%' {
						ti++
						pi += 2
						continue
					}
				} else {
					starPattern = pi
					starText = ti
					pi++
					continue
				}
			case '_':
				_, tw := utf8.DecodeRuneInString(text[ti:])
				ti += tw
				pi++
				continue
			default:
				pr, pw := utf8.DecodeRuneInString(pattern[pi:])
				tr, tw := utf8.DecodeRuneInString(text[ti:])
				if tr == pr {
					ti += tw
					pi += pw
					continue
				}
			}
		}
		if starPattern != -1 {
			pi = starPattern + 1
			_, tw := utf8.DecodeRuneInString(text[starText:])
			starText += tw
			ti = starText
			continue
		}
		return false, nil
	}

	for pi < len(pattern) && pattern[pi] == '%' && !isEscapedPercent(pattern, pi) {
		pi++
	}
	return pi == len(pattern), nil
}

// isEscapedPercent reports whether the '%' at pattern[pi] is the first
// of a "%%" pair denoting a literal '%', rather than a star wildcard.
// '%' is always a single ASCII byte, so pi+1 indexes the very next
// pattern byte with no rune decoding needed.
func isEscapedPercent(pattern string, pi int) bool {
	return pi+1 < len(pattern) && pattern[pi+1] == '%'
}
