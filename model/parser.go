package model

import (
	"strings"
)

const (
	byteOrderMark = "\uFEFF"
	delimiter     = ","
)

// Parse turns delimited text into a header and records in load order.
// Values are kept as raw trimmed strings, fields that contain the delimiter are not supported.
func Parse(raw string) (Header, []Record, error) {
	raw = strings.TrimPrefix(raw, byteOrderMark)
	if strings.TrimSpace(raw) == "" {
		return Header{}, nil, &ParseError{Line: 1, Err: ErrNoHeader}
	}

	lines := strings.Split(raw, "\n")
	header := NewHeader(splitFields(lines[0]))

	records := make([]Record, 0, len(lines)-1)
	for _, line := range lines[1:] {
		fields := splitFields(line)
		if len(fields) == 1 && fields[0] == "" {
			continue
		}
		records = append(records, newRecord(len(records), header, fields))
	}

	return header, records, nil
}

func splitFields(line string) []string {
	fields := strings.Split(line, delimiter)
	for i, f := range fields {
		fields[i] = strings.TrimSpace(f)
	}
	return fields
}
