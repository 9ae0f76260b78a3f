package consensus

// KeyFunc maps a record to its deduplication key.
type KeyFunc func(CallRecord) string

// ByLocation deduplicates by location. It is used within one sample.
func ByLocation(r CallRecord) string { return r.Location() }

// BySampleLocation deduplicates by (sample, location). It is used for tables
// spanning several samples.
func BySampleLocation(r CallRecord) string { return r.Sample + "\t" + r.Location() }

// Dedup returns the first record for each key, in order. Applying Dedup to
// its own result returns the same records.
func Dedup(records []CallRecord, key KeyFunc) []CallRecord {
	seen := make(map[string]struct{}, len(records))
	out := make([]CallRecord, 0, len(records))
	for _, r := range records {
		k := key(r)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}
