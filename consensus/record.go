package consensus

// Names of the columns derived for every record and appended to the output
// header.
const (
	ColSample   = "sample"
	ColTool     = "tool"
	ColLocation = "location"

	colChrom = "#CHROM"
	colPos   = "POS"
)

// Field is one column of an input row.
type Field struct {
	Name  string
	Value string
}

// Fields holds the columns of one input row in header order, including
// #CHROM and POS. Columns not understood by this package are carried through
// to the output untouched.
type Fields []Field

// Get returns the value of the named column, or "" if the row has no such
// column. If the header repeats a name, the last occurrence wins.
func (f Fields) Get(name string) string {
	for i := len(f) - 1; i >= 0; i-- {
		if f[i].Name == name {
			return f[i].Value
		}
	}
	return ""
}

// Has checks if the row has the named column.
func (f Fields) Has(name string) bool {
	for i := range f {
		if f[i].Name == name {
			return true
		}
	}
	return false
}

// CallRecord is one insertion call reported by one detector (Tool) for one
// biological sample.
type CallRecord struct {
	Chrom string
	// Pos is kept as text exactly as found in the input.
	Pos    string
	Sample string
	Tool   string
	Fields Fields
}

// Location returns the grouping key "chrom:pos". It is recomputed on every
// call so that it always agrees with Chrom and Pos.
func (r CallRecord) Location() string {
	return r.Chrom + ":" + r.Pos
}

// Key returns the (sample, location) agreement key of the record.
func (r CallRecord) Key() Key {
	return Key{Sample: r.Sample, Location: r.Location()}
}

// Value returns the output value of the named column. The derived sample,
// tool and location columns always take the derived values.
func (r CallRecord) Value(col string) string {
	switch col {
	case ColSample:
		return r.Sample
	case ColTool:
		return r.Tool
	case ColLocation:
		return r.Location()
	}
	return r.Fields.Get(col)
}
