package interval

import (
	"bufio"
	"context"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// PosType is BEDUnion's coordinate type.
type PosType int32

const posTypeMax = math.MaxInt32

// searchPosType returns the index of x in a[], or the position where x would
// be inserted if x isn't in a (this could be len(a)).  It's exactly the same
// as sort.SearchInts(), except for PosType.
func searchPosType(a []PosType, x PosType) int {
	return sort.Search(len(a), func(i int) bool { return a[i] >= x })
}

// NewBEDOpts defines behavior of this package's BED-loading functions.
type NewBEDOpts struct {
	// Invert causes the complement of the interval-union to be returned.  The
	// complement extends down to position -1 at the beginning of each
	// chromosome, and 2^31 - 2 inclusive at the end.  Only the chromosomes
	// mentioned in the input are included; a single empty interval qualifies
	// as a mention.
	Invert bool
	// OneBasedInput interprets the BED interval boundaries as one-based [start,
	// end] instead of the usual zero-based [start, end).
	OneBasedInput bool
}

// BEDUnion is a set of disjoint intervals per chromosome.  Each chromosome
// maps to a length-2N sequence, where N is the number of intervals, the
// (0-based) start of interval #k is in element [2k], its end is in element
// [2k+1], and the intervals are in increasing order.
//
// A BEDUnion holds no search state, so one value may be queried from several
// goroutines.
type BEDUnion struct {
	nameMap map[string][]PosType
}

// Entry represents a single interval, with 0-based coordinates.
type Entry struct {
	ChrName string
	Start0  PosType
	End     PosType
}

// ContainsByName checks whether the (0-based) interval [pos, pos+1) is
// contained within the BEDUnion, where chromosome is specified by name.
// Chromosomes absent from the union contain nothing.
func (u *BEDUnion) ContainsByName(chrName string, pos PosType) bool {
	chrIntervals := u.nameMap[chrName]
	if chrIntervals == nil {
		return false
	}
	return searchPosType(chrIntervals, pos+1)&1 == 1
}

// Chromosomes returns the names of the chromosomes in the union, sorted.
func (u *BEDUnion) Chromosomes() []string {
	names := make([]string, 0, len(u.nameMap))
	for name := range u.nameMap {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NIntervals returns the number of disjoint intervals in the union.
func (u *BEDUnion) NIntervals() int {
	n := 0
	for _, chrIntervals := range u.nameMap {
		n += len(chrIntervals) / 2
	}
	return n
}

// NewBEDUnion reads a BED file and returns the union of its intervals.  Only
// the first three columns are read.  Blank lines, '#' comments, and "track" or
// "browser" lines are skipped.  The input need not be sorted.
func NewBEDUnion(reader io.Reader, opts NewBEDOpts) (*BEDUnion, error) {
	var startSubtract PosType
	if opts.OneBasedInput {
		startSubtract = 1
	}
	var entries []Entry
	scanner := bufio.NewScanner(reader)
	lineIdx := 0
	for scanner.Scan() {
		lineIdx++
		line := scanner.Text()
		fields := strings.Fields(line)
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") || fields[0] == "track" || fields[0] == "browser" {
			continue
		}
		if len(fields) < 3 {
			return nil, errors.Errorf("interval.NewBEDUnion: line %d has %d columns, want at least 3", lineIdx, len(fields))
		}
		start, err := strconv.ParseInt(fields[1], 10, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "interval.NewBEDUnion: line %d", lineIdx)
		}
		end, err := strconv.ParseInt(fields[2], 10, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "interval.NewBEDUnion: line %d", lineIdx)
		}
		entries = append(entries, Entry{
			ChrName: fields[0],
			Start0:  PosType(start) - startSubtract,
			End:     PosType(end),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "interval.NewBEDUnion")
	}
	return NewBEDUnionFromEntries(entries, opts)
}

// NewBEDUnionFromPath is a wrapper for NewBEDUnion that takes a path instead
// of an io.Reader.  Gzipped files are decompressed.
func NewBEDUnionFromPath(ctx context.Context, path string, opts NewBEDOpts) (bedUnion *BEDUnion, err error) {
	infile, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := infile.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	reader := io.Reader(infile.Reader(ctx))
	if fileio.DetermineType(path) == fileio.Gzip {
		gz, err := gzip.NewReader(reader)
		if err != nil {
			return nil, errors.Wrapf(err, "interval.NewBEDUnionFromPath %s", path)
		}
		defer gz.Close() // nolint: errcheck
		reader = gz
	}
	bedUnion, err = NewBEDUnion(reader, opts)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return bedUnion, nil
}

// ParseRegionString parses a region string of one of the forms
//   [contig ID]:[1-based first pos]-[last pos]
//   [contig ID]:[1-based pos]
//   [contig ID]
// returning a contig ID and 0-based interval boundaries.  The interval
// [0, posTypeMax - 1) is returned if there is no positional restriction.
func ParseRegionString(region string) (result Entry, err error) {
	if len(region) == 0 {
		err = errors.New("interval.ParseRegionString: empty region string")
		return
	}
	colonPos := strings.IndexByte(region, ':')
	if colonPos == -1 {
		result.ChrName = region
		result.Start0 = 0
		result.End = posTypeMax - 1
		return
	}
	if colonPos == 0 {
		err = errors.New("interval.ParseRegionString: empty contig ID")
		return
	}
	result.ChrName = region[:colonPos]
	rangeStr := region[colonPos+1:]
	dashPos := strings.IndexByte(rangeStr, '-')
	if dashPos == -1 {
		var pos1 int64
		if pos1, err = strconv.ParseInt(rangeStr, 10, 32); err != nil {
			err = errors.Wrapf(err, "interval.ParseRegionString %s", region)
			return
		}
		if pos1 <= 0 {
			err = errors.Errorf("interval.ParseRegionString: position %v in region string out of range", rangeStr)
			return
		}
		result.Start0 = PosType(pos1 - 1)
		result.End = PosType(pos1)
		return
	}
	start1Str := rangeStr[:dashPos]
	endStr := rangeStr[dashPos+1:]
	var start1, end0 int
	if start1, err = strconv.Atoi(start1Str); err != nil {
		err = errors.Wrapf(err, "interval.ParseRegionString %s", region)
		return
	}
	if start1 <= 0 {
		err = errors.Errorf("interval.ParseRegionString: position %v in region string out of range", start1Str)
		return
	}
	if end0, err = strconv.Atoi(endStr); err != nil {
		err = errors.Wrapf(err, "interval.ParseRegionString %s", region)
		return
	}
	// end0 == posTypeMax is prohibited so that the interval-array never
	// contains repeats.
	if end0 < start1 || end0 >= posTypeMax {
		err = errors.Errorf("interval.ParseRegionString: invalid range string %v", rangeStr)
		return
	}
	result.Start0 = PosType(start1 - 1)
	result.End = PosType(end0)
	return
}

// NewBEDUnionFromRegions returns the union of a list of region strings, each
// in a form accepted by ParseRegionString.
func NewBEDUnionFromRegions(regions []string, opts NewBEDOpts) (*BEDUnion, error) {
	entries := make([]Entry, 0, len(regions))
	for _, region := range regions {
		entry, err := ParseRegionString(region)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return NewBEDUnionFromEntries(entries, opts)
}

// NewBEDUnionFromEntries returns the union of entries, which may be in any
// order.  This ignores opts.OneBasedInput, since Start0 is defined to be
// zero-based.
func NewBEDUnionFromEntries(entries []Entry, opts NewBEDOpts) (*BEDUnion, error) {
	byChr := make(map[string][]Entry)
	for _, entry := range entries {
		if entry.ChrName == "" {
			return nil, errors.New("interval.NewBEDUnionFromEntries: empty chromosome name")
		}
		if entry.Start0 < 0 {
			return nil, errors.Errorf("interval.NewBEDUnionFromEntries: negative start coordinate on %s", entry.ChrName)
		}
		if entry.End < entry.Start0 || entry.End >= posTypeMax {
			return nil, errors.Errorf("interval.NewBEDUnionFromEntries: invalid coordinate pair [%d, %d) on %s", entry.Start0, entry.End, entry.ChrName)
		}
		byChr[entry.ChrName] = append(byChr[entry.ChrName], entry)
	}
	bedUnion := &BEDUnion{nameMap: make(map[string][]PosType, len(byChr))}
	for chrName, chrEntries := range byChr {
		bedUnion.nameMap[chrName] = mergeEntries(chrEntries, opts.Invert)
	}
	return bedUnion, nil
}

// mergeEntries sorts the entries of one chromosome and merges overlapping and
// adjacent intervals.  Empty intervals are dropped.
func mergeEntries(entries []Entry, invert bool) []PosType {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Start0 != entries[j].Start0 {
			return entries[i].Start0 < entries[j].Start0
		}
		return entries[i].End < entries[j].End
	})
	chrIntervals := []PosType{}
	if invert {
		chrIntervals = append(chrIntervals, -1)
	}
	prevStart, prevEnd := PosType(-1), PosType(-1)
	for _, entry := range entries {
		if entry.End == entry.Start0 {
			continue
		}
		if prevEnd != -1 && entry.Start0 <= prevEnd {
			if entry.End > prevEnd {
				prevEnd = entry.End
			}
			continue
		}
		if prevEnd != -1 {
			chrIntervals = append(chrIntervals, prevStart, prevEnd)
		}
		prevStart, prevEnd = entry.Start0, entry.End
	}
	if prevEnd != -1 {
		chrIntervals = append(chrIntervals, prevStart, prevEnd)
	}
	if invert {
		chrIntervals = append(chrIntervals, posTypeMax)
	}
	return chrIntervals
}
