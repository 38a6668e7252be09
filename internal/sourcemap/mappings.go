package sourcemap

import (
	"fmt"
	"strings"
)

// Mapping is one decoded segment of a "mappings" field.
// Lines and columns are zero-based. Source and Name are indexes into the
// map's "sources" and "names" lists, or -1 when the segment omits them.
type Mapping struct {
	GenLine      int
	GenColumn    int
	Source       int
	SourceLine   int
	SourceColumn int
	Name         int
}

// DecodeMappings expands a "mappings" field into absolute segments,
// ordered as they appear in the input.
func DecodeMappings(s string) ([]Mapping, error) {
	var (
		out                          []Mapping
		genLine, genCol              int
		src, srcLine, srcCol, nameIx int
	)

	pos := 0
	for pos < len(s) {
		switch s[pos] {
		case ';':
			genLine++
			genCol = 0
			pos++
			continue
		case ',':
			pos++
			continue
		}

		var fields [5]int
		n := 0
		for pos < len(s) && s[pos] != ',' && s[pos] != ';' {
			if n == len(fields) {
				return nil, fmt.Errorf("%w: more than 5 fields on line %d", ErrInvalidSegment, genLine)
			}
			v, next, err := decodeVLQ(s, pos)
			if err != nil {
				return nil, err
			}
			fields[n] = v
			n++
			pos = next
		}

		switch n {
		case 1, 4, 5:
		default:
			return nil, fmt.Errorf("%w: %d fields on line %d", ErrInvalidSegment, n, genLine)
		}

		genCol += fields[0]
		if genCol < 0 {
			return nil, fmt.Errorf("%w: negative column on line %d", ErrInvalidSegment, genLine)
		}
		m := Mapping{GenLine: genLine, GenColumn: genCol, Source: -1, Name: -1}
		if n >= 4 {
			src += fields[1]
			srcLine += fields[2]
			srcCol += fields[3]
			if src < 0 || srcLine < 0 || srcCol < 0 {
				return nil, fmt.Errorf("%w: negative source position on line %d", ErrInvalidSegment, genLine)
			}
			m.Source, m.SourceLine, m.SourceColumn = src, srcLine, srcCol
		}
		if n == 5 {
			nameIx += fields[4]
			if nameIx < 0 {
				return nil, fmt.Errorf("%w: negative name index on line %d", ErrInvalidSegment, genLine)
			}
			m.Name = nameIx
		}
		out = append(out, m)
	}
	return out, nil
}

// EncodeMappings serializes segments into a "mappings" field.
// Segments must be sorted by generated line, then generated column.
func EncodeMappings(ms []Mapping) string {
	var (
		b                            strings.Builder
		line, prevGenCol             int
		src, srcLine, srcCol, nameIx int
	)

	first := true
	for _, m := range ms {
		for line < m.GenLine {
			b.WriteByte(';')
			line++
			prevGenCol = 0
			first = true
		}
		if !first {
			b.WriteByte(',')
		}
		first = false

		encodeVLQ(&b, m.GenColumn-prevGenCol)
		prevGenCol = m.GenColumn
		if m.Source < 0 {
			continue
		}
		encodeVLQ(&b, m.Source-src)
		encodeVLQ(&b, m.SourceLine-srcLine)
		encodeVLQ(&b, m.SourceColumn-srcCol)
		src, srcLine, srcCol = m.Source, m.SourceLine, m.SourceColumn
		if m.Name >= 0 {
			encodeVLQ(&b, m.Name-nameIx)
			nameIx = m.Name
		}
	}
	return b.String()
}
