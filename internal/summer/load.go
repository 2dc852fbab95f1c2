// Package summer loads generated record files and compares parallel and
// sequential summation over them.
package summer

import (
	"bufio"
	"os"

	"github.com/neomorfeo/hexgen/internal/domain"
)

// maxPrealloc caps the initial slice capacity when the limit is large.
const maxPrealloc = 1 << 20

// Load reads whitespace-separated records from path. When maxBytes is
// positive at most maxBytes/LineWidth records are read. Tokens longer than
// RecordWidth are split into RecordWidth-sized pieces, however long.
func Load(path string, maxBytes int64) ([]domain.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &domain.IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	limit := -1
	if maxBytes > 0 {
		limit = int(maxBytes / domain.LineWidth)
	}

	capacity := maxPrealloc
	if limit >= 0 && limit < capacity {
		capacity = limit
	}
	records := make([]domain.Record, 0, capacity)

	sc := bufio.NewScanner(f)
	sc.Split(scanRecords)

	for (limit < 0 || len(records) < limit) && sc.Scan() {
		records = append(records, domain.ParseRecord(sc.Text()))
	}
	if err := sc.Err(); err != nil {
		return nil, &domain.IOError{Op: "read", Path: path, Err: err}
	}

	return records, nil
}

// scanRecords is a bufio.SplitFunc yielding whitespace-separated tokens of
// at most RecordWidth bytes. Longer runs of non-space bytes are cut into
// consecutive pieces, so no token ever exceeds the scanner's buffer.
func scanRecords(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := 0
	for start < len(data) && isSpace(data[start]) {
		start++
	}

	for i := start; i < len(data); i++ {
		if isSpace(data[i]) {
			return i, data[start:i], nil
		}
		if i-start == domain.RecordWidth {
			return i, data[start:i], nil
		}
	}

	if len(data)-start >= domain.RecordWidth {
		return start + domain.RecordWidth, data[start : start+domain.RecordWidth], nil
	}
	if atEOF && len(data) > start {
		return len(data), data[start:], nil
	}
	return start, nil, nil
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
