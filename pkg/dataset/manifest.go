package dataset

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/MrCodeEU/fisherface/pkg/faceerr"
)

// Entry is one manifest record.
type Entry struct {
	ClassID    int
	PersonName string
	Path       string
	Line       int
}

// ParseManifest reads "classId personName imagePath" records, one per line.
// Fields are split on the first two spaces, so the path may itself contain
// spaces. Reading stops at EOF or at the first blank line.
func ParseManifest(r io.Reader) ([]Entry, error) {
	const op = "dataset.ParseManifest"

	var entries []Entry
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			break
		}

		idEnd := strings.IndexByte(line, ' ')
		if idEnd < 0 {
			return nil, faceerr.Parse(op, "missing delimiter after class id").WithLine(lineNo)
		}
		rest := line[idEnd+1:]
		nameEnd := strings.IndexByte(rest, ' ')
		if nameEnd < 0 {
			return nil, faceerr.Parse(op, "missing delimiter after person name").WithLine(lineNo)
		}

		id, err := strconv.Atoi(line[:idEnd])
		if err != nil {
			return nil, faceerr.Parse(op, fmt.Sprintf("class id %q is not a number", line[:idEnd])).WithLine(lineNo)
		}
		if id <= 0 {
			return nil, faceerr.Parse(op, fmt.Sprintf("class id must be positive, got %d", id)).WithLine(lineNo)
		}

		if nameEnd == 0 {
			return nil, faceerr.Parse(op, "empty person name").WithLine(lineNo)
		}

		path := rest[nameEnd+1:]
		if path == "" {
			return nil, faceerr.Parse(op, "missing image path").WithLine(lineNo)
		}

		entries = append(entries, Entry{
			ClassID:    id,
			PersonName: rest[:nameEnd],
			Path:       path,
			Line:       lineNo,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, faceerr.Wrap(faceerr.KindResource, op, "read manifest", err)
	}
	return entries, nil
}

// FormatEntry renders e as a manifest line without the trailing newline.
func FormatEntry(e Entry) string {
	return strconv.Itoa(e.ClassID) + " " + e.PersonName + " " + e.Path
}
