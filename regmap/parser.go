package regmap

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Constants for register map parsing.
const (
	// FieldCount is the number of comma-separated fields per data line
	FieldCount = 9

	// DefaultDescriptorCapacity is the initial capacity for the
	// descriptors slice
	DefaultDescriptorCapacity = 64
)

// Parse parses a register map document from the given file path.
//
// Example:
//
//	doc, err := regmap.Parse("8a6e1f0c-2f9b-4c57-9c04-8c9f315c1fd2.csv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%s: %d registers\n", doc.Title, len(doc.Descriptors))
func Parse(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ParseReader(f)
}

// ParseReader parses a register map document from any io.Reader.
func ParseReader(r io.Reader) (*Document, error) {
	b := NewBuilder()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if err := b.AddLine(scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return b.Document()
}

// Builder assembles a Document from map lines as they arrive, one at a
// time. Header fields become available as soon as their lines have been
// consumed, before the rest of the map has transferred.
//
// The parse is fail-fast: the first malformed line poisons the builder and
// AddLine/Document keep returning the same *MalformedRegisterError.
type Builder struct {
	lineNum  int
	title    string
	uuid     string
	rawLines []string
	descs    []*Descriptor
	names    map[string]int
	err      error
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		rawLines: make([]string, 0, DefaultDescriptorCapacity),
		descs:    make([]*Descriptor, 0, DefaultDescriptorCapacity),
		names:    make(map[string]int),
	}
}

// Title returns the device title, or "" if no title header has been seen.
func (b *Builder) Title() string { return b.title }

// UUID returns the canonical device UUID, or "" if no uuid header has been
// seen (or the device reported the nil UUID).
func (b *Builder) UUID() string { return b.uuid }

// AddLine consumes the next map line.
func (b *Builder) AddLine(line string) error {
	if b.err != nil {
		return b.err
	}
	b.lineNum++
	b.rawLines = append(b.rawLines, line)

	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil
	}
	if IsComment(trimmed) {
		if b.title == "" {
			if title, ok := ExtractTitle(trimmed); ok {
				b.title = title
				return nil
			}
		}
		if b.uuid == "" {
			if id, ok := ExtractUUID(trimmed); ok {
				b.uuid = id
			}
		}
		return nil
	}

	desc, err := parseDescriptorLine(b.lineNum, line)
	if err != nil {
		b.err = err
		return err
	}
	if first, ok := b.names[desc.Name]; ok {
		b.err = &MalformedRegisterError{
			Line:   b.lineNum,
			Raw:    line,
			Reason: fmt.Sprintf("duplicate register name %q (first defined on line %d)", desc.Name, first),
		}
		return b.err
	}
	b.names[desc.Name] = b.lineNum
	b.descs = append(b.descs, desc)
	return nil
}

// Document finalizes the parse and returns the completed document.
func (b *Builder) Document() (*Document, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.descs) == 0 {
		return nil, fmt.Errorf("no register descriptors found")
	}
	return &Document{
		Title:       b.title,
		UUID:        b.uuid,
		Descriptors: b.descs,
		Raw:         strings.Join(b.rawLines, "\n"),
	}, nil
}

// parseDescriptorLine parses one data line:
//
//	address,readWords,writeWords,persist,name,packing,unit,printFormat,hint
//
// Any field may be double-quoted; a quoted hint may contain embedded commas
// and escaped quotes.
func parseDescriptorLine(lineNum int, line string) (*Descriptor, error) {
	malformed := func(reason string) error {
		return &MalformedRegisterError{Line: lineNum, Raw: line, Reason: reason}
	}

	cr := csv.NewReader(strings.NewReader(line))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	fields, err := cr.Read()
	if err != nil {
		return nil, malformed(fmt.Sprintf("invalid CSV quoting: %v", err))
	}
	if len(fields) != FieldCount {
		return nil, malformed(fmt.Sprintf("expected %d fields, got %d", FieldCount, len(fields)))
	}

	address, err := parseWordField(fields[0], "address")
	if err != nil {
		return nil, malformed(err.Error())
	}
	readWords, err := parseWordField(fields[1], "read word count")
	if err != nil {
		return nil, malformed(err.Error())
	}
	writeWords, err := parseWordField(fields[2], "write word count")
	if err != nil {
		return nil, malformed(err.Error())
	}
	persist, err := strconv.Atoi(strings.TrimSpace(fields[3]))
	if err != nil || persist < 0 {
		return nil, malformed(fmt.Sprintf("invalid persist flag %q", strings.TrimSpace(fields[3])))
	}

	name := strings.TrimSpace(fields[4])
	if name == "" {
		return nil, malformed("empty register name")
	}

	spec, err := ParsePackingSpec(fields[5])
	if err != nil {
		return nil, malformed(err.Error())
	}

	// The element must fit the words allotted to each supported operation.
	if readWords > 0 && spec.Width > int(readWords)*2 {
		return nil, malformed(fmt.Sprintf("%d-byte %s exceeds %d read words", spec.Width, spec.Type, readWords))
	}
	if writeWords > 0 && spec.Width > int(writeWords)*2 {
		return nil, malformed(fmt.Sprintf("%d-byte %s exceeds %d write words", spec.Width, spec.Type, writeWords))
	}

	return &Descriptor{
		Address:     address,
		ReadWords:   readWords,
		WriteWords:  writeWords,
		Persist:     persist != 0,
		Name:        name,
		Packing:     spec,
		Unit:        strings.TrimSpace(fields[6]),
		PrintFormat: strings.TrimSpace(fields[7]),
		Hint:        strings.TrimSpace(fields[8]),
	}, nil
}

func parseWordField(field, what string) (uint16, error) {
	v, err := strconv.Atoi(strings.TrimSpace(field))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", what, strings.TrimSpace(field))
	}
	if v < 0 || v > 0xFFFF {
		return 0, fmt.Errorf("%s %d out of range", what, v)
	}
	return uint16(v), nil
}
