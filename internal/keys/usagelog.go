package keys

// usageRing is a fixed-capacity FIFO of usage records. Pushing onto a full ring
// overwrites the oldest entry.
type usageRing struct {
	buf   []UsageRecord
	start int
	n     int
}

func newUsageRing(capacity int) *usageRing {
	if capacity <= 0 {
		capacity = 1
	}
	return &usageRing{buf: make([]UsageRecord, capacity)}
}

func (r *usageRing) push(rec UsageRecord) {
	if r.n < len(r.buf) {
		r.buf[(r.start+r.n)%len(r.buf)] = rec
		r.n++
		return
	}
	r.buf[r.start] = rec
	r.start = (r.start + 1) % len(r.buf)
}

func (r *usageRing) len() int { return r.n }

// recent returns up to limit records, newest first. limit <= 0 returns all.
func (r *usageRing) recent(limit int) []UsageRecord {
	if limit <= 0 || limit > r.n {
		limit = r.n
	}
	out := make([]UsageRecord, 0, limit)
	for i := 0; i < limit; i++ {
		idx := (r.start + r.n - 1 - i) % len(r.buf)
		out = append(out, r.buf[idx])
	}
	return out
}

// resize changes capacity, keeping the newest records.
func (r *usageRing) resize(capacity int) {
	if capacity <= 0 || capacity == len(r.buf) {
		return
	}
	kept := r.recent(capacity)
	next := newUsageRing(capacity)
	for i := len(kept) - 1; i >= 0; i-- {
		next.push(kept[i])
	}
	*r = *next
}
