package regmap

import "fmt"

// Descriptor holds the parsed metadata for one named register.
type Descriptor struct {
	// Address is the starting holding-register address
	Address uint16

	// ReadWords is the word count for read transactions, 0 if not readable
	ReadWords uint16

	// WriteWords is the word count for write transactions, 0 if not writable
	WriteWords uint16

	// Persist hints that the value survives a device power-cycle.
	// Informational only; it does not affect codec behavior.
	Persist bool

	// Name is the unique lookup key for this register
	Name string

	// Packing describes how raw words map to an engineering value
	Packing PackingSpec

	// Unit, PrintFormat and Hint are descriptive metadata passed through
	// from the map unchanged
	Unit        string
	PrintFormat string
	Hint        string
}

// Readable reports whether the register supports read transactions.
func (d *Descriptor) Readable() bool {
	return d.ReadWords > 0 && d.Packing.Type != TypeReserved
}

// Writable reports whether the register supports write transactions.
func (d *Descriptor) Writable() bool {
	return d.WriteWords > 0 && d.Packing.Type != TypeReserved
}

// Decode interprets raw words read from this register as an engineering
// value according to the packing specifier.
func (d *Descriptor) Decode(words []uint16) (interface{}, error) {
	return d.Packing.Decode(words)
}

// Encode converts an engineering value into the word buffer to write to
// this register, padded to WriteWords words.
func (d *Descriptor) Encode(value interface{}) ([]uint16, error) {
	if d.WriteWords == 0 {
		return nil, fmt.Errorf("register %q is not writable", d.Name)
	}
	return d.Packing.Encode(value, d.WriteWords)
}

// Document is a complete parsed register map.
type Document struct {
	// Title is the device title from the map header, "" if absent
	Title string

	// UUID is the canonical device UUID from the map header, "" if absent.
	// Documents without a UUID cannot be cached.
	UUID string

	// Descriptors holds all registers in original line order
	Descriptors []*Descriptor

	// Raw is the verbatim document text as transferred, newline-joined.
	// It is what gets persisted to the map cache.
	Raw string
}

// Table is an immutable name index over a document's descriptors.
// It is built once per device session.
type Table struct {
	byName map[string]*Descriptor
}

// NewTable builds the name index for a document. Duplicate register names
// violate the uniqueness invariant and fail the build rather than silently
// shadowing an earlier descriptor.
func NewTable(doc *Document) (*Table, error) {
	byName := make(map[string]*Descriptor, len(doc.Descriptors))
	for _, d := range doc.Descriptors {
		if _, ok := byName[d.Name]; ok {
			return nil, &MalformedRegisterError{
				Reason: fmt.Sprintf("duplicate register name %q", d.Name),
			}
		}
		byName[d.Name] = d
	}
	return &Table{byName: byName}, nil
}

// Lookup resolves a register name to its descriptor. The match is
// case-sensitive and exact.
func (t *Table) Lookup(name string) (*Descriptor, bool) {
	d, ok := t.byName[name]
	return d, ok
}

// Len returns the number of registers in the table.
func (t *Table) Len() int {
	return len(t.byName)
}

// Names returns all register names in unspecified order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.byName))
	for name := range t.byName {
		names = append(names, name)
	}
	return names
}
