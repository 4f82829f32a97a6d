package executor

import (
	"bytes"
	"regexp"
	"strconv"
)

// progressPattern matches the first percentage on a line, e.g. " 42%|████"
var progressPattern = regexp.MustCompile(`(\d{1,3})%`)

// ParseProgress extracts the first 1-3 digit percentage from a line of tool output
func ParseProgress(line string) (int, bool) {
	m := progressPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	pct, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return pct, true
}

// ScanProgressLines is a bufio.SplitFunc that ends a line at "\n", "\r\n" or
// a lone "\r". Progress bars redraw themselves with carriage returns, so
// splitting only on newlines would hold every update back until the bar ends.
func ScanProgressLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		// Trailing '\r': wait to see whether '\n' follows
		if !atEOF {
			return 0, nil, nil
		}
		return i + 1, data[:i], nil
	}

	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
