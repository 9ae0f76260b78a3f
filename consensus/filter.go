package consensus

import (
	"strconv"

	"github.com/grailbio/base/log"
	"github.com/grailbio/teconsensus/interval"
)

// FilterByCallers keeps the groups supported by at least minCallers records.
// Groups below the threshold are dropped with all their records.
func FilterByCallers(g *Grouping, minCallers int) *Grouping {
	return g.Select(func(grp *Group) bool { return grp.Support() >= minCallers })
}

// AncestorLocations computes the locations confidently called in the ancestor
// sample: those whose (ancestor, location) group in g has at least minCallers
// records. g should be the unfiltered grouping, so that the result does not
// depend on any other filtering applied to the ancestor.
//
// The result is empty if ancestor is "" or has no groups.
func AncestorLocations(g *Grouping, ancestor string, minCallers int) LocationSet {
	set := LocationSet{}
	if ancestor == "" {
		return set
	}
	for _, grp := range g.Groups() {
		if grp.Sample == ancestor && grp.Support() >= minCallers {
			set[grp.Location] = struct{}{}
		}
	}
	return set
}

// SubtractAncestor drops the groups of every sample other than ancestor whose
// location is in set. The same set applies to all samples: a sample calling
// an ancestor location is assumed to have inherited it. It also returns the
// number of groups removed.
func SubtractAncestor(g *Grouping, ancestor string, set LocationSet) (*Grouping, int) {
	if len(set) == 0 {
		return g, 0
	}
	removed := 0
	out := g.Select(func(grp *Group) bool {
		if grp.Sample != ancestor && set.Contains(grp.Location) {
			removed++
			return false
		}
		return true
	})
	return out, removed
}

// MaskRegions keeps the records whose position lies in regions, or, if
// exclude is set, those whose position does not. POS is read as a 1-based
// coordinate; records whose POS is not an integer are dropped either way.
// The records themselves, including the POS text, are not modified.
func MaskRegions(records []CallRecord, regions *interval.BEDUnion, exclude bool) []CallRecord {
	kept := make([]CallRecord, 0, len(records))
	for _, r := range records {
		pos, err := strconv.ParseInt(r.Pos, 10, 32)
		if err != nil {
			log.Debug.Printf("MaskRegions: dropping %s (sample %s, tool %s): %v", r.Location(), r.Sample, r.Tool, err)
			continue
		}
		if regions.ContainsByName(r.Chrom, interval.PosType(pos-1)) != exclude {
			kept = append(kept, r)
		}
	}
	return kept
}
