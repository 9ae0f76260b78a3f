package consensus

// Key identifies the calls of one sample at one location.
type Key struct {
	Sample   string
	Location string
}

// Group collects the records of all detectors that called the same location
// in the same sample.
type Group struct {
	Key
	Records []CallRecord
}

// Support is the number of records in the group, i.e. the number of detectors
// agreeing on the location.
//
// Two records from the same tool at the same location both count.
//
// TODO: confirm whether support should count distinct tools instead.
func (g *Group) Support() int { return len(g.Records) }

// Grouping is an ordered collection of groups. Groups appear in the order
// their first record was encountered. A Grouping is not modified after it is
// built; the filtering stages return new Groupings that share the groups.
type Grouping struct {
	groups []*Group
	index  map[Key]int
}

func newGrouping(capacity int) *Grouping {
	return &Grouping{
		groups: make([]*Group, 0, capacity),
		index:  make(map[Key]int, capacity),
	}
}

func (g *Grouping) add(grp *Group) {
	g.index[grp.Key] = len(g.groups)
	g.groups = append(g.groups, grp)
}

// GroupBySampleLocation groups records by exact (sample, location) equality.
// Chromosome names and positions are compared as strings, without any
// normalization.
func GroupBySampleLocation(records []CallRecord) *Grouping {
	g := newGrouping(len(records))
	for _, r := range records {
		k := r.Key()
		if i, ok := g.index[k]; ok {
			g.groups[i].Records = append(g.groups[i].Records, r)
			continue
		}
		g.add(&Group{Key: k, Records: []CallRecord{r}})
	}
	return g
}

// Len returns the number of groups.
func (g *Grouping) Len() int { return len(g.groups) }

// Groups returns the groups in order. The caller must not modify the result.
func (g *Grouping) Groups() []*Group { return g.groups }

// Get returns the group with the given key, or nil.
func (g *Grouping) Get(k Key) *Group {
	if i, ok := g.index[k]; ok {
		return g.groups[i]
	}
	return nil
}

// Records returns the records of all groups, group by group.
func (g *Grouping) Records() []CallRecord {
	var n int
	for _, grp := range g.groups {
		n += len(grp.Records)
	}
	recs := make([]CallRecord, 0, n)
	for _, grp := range g.groups {
		recs = append(recs, grp.Records...)
	}
	return recs
}

// Select returns a new Grouping holding the groups for which keep returns
// true, in the same order.
func (g *Grouping) Select(keep func(*Group) bool) *Grouping {
	out := newGrouping(len(g.groups))
	for _, grp := range g.groups {
		if keep(grp) {
			out.add(grp)
		}
	}
	return out
}

// LocationSet is a set of "chrom:pos" locations.
type LocationSet map[string]struct{}

// Contains checks if loc is in the set.
func (s LocationSet) Contains(loc string) bool {
	_, ok := s[loc]
	return ok
}
