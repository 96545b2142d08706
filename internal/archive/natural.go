package archive

import "sort"

// sortPageNames orders entry names the way a reader expects: digit runs
// compare numerically so page2 comes before page10, everything else
// compares byte-wise case-insensitively.
func sortPageNames(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		return naturalLess(names[i], names[j])
	})
}

func naturalLess(a, b string) bool {
	for len(a) > 0 && len(b) > 0 {
		if isDigit(a[0]) && isDigit(b[0]) {
			aNum, aRest := splitDigits(a)
			bNum, bRest := splitDigits(b)
			if c := numCompare(aNum, bNum); c != 0 {
				return c < 0
			}
			a, b = aRest, bRest
			continue
		}
		ca, cb := lower(a[0]), lower(b[0])
		if ca != cb {
			return ca < cb
		}
		a, b = a[1:], b[1:]
	}
	return len(a) < len(b)
}

// numCompare compares two digit runs by value without overflowing on
// absurdly long runs. Equal values order the more-padded run first so
// zero-padded names keep a total order.
func numCompare(a, b string) int {
	ta, tb := trimZeros(a), trimZeros(b)
	if len(ta) != len(tb) {
		if len(ta) < len(tb) {
			return -1
		}
		return 1
	}
	if ta != tb {
		if ta < tb {
			return -1
		}
		return 1
	}
	if len(a) != len(b) {
		if len(a) > len(b) {
			return -1
		}
		return 1
	}
	return 0
}

func splitDigits(s string) (digits, rest string) {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return s[:i], s[i:]
}

func trimZeros(s string) string {
	i := 0
	for i < len(s)-1 && s[i] == '0' {
		i++
	}
	return s[i:]
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + 'a' - 'A'
	}
	return c
}
