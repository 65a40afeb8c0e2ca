package domain

import "time"

// Digest is one batched notification: the threshold section first, then an
// optional low-priority section of sub-threshold notices. Inclusion in the
// low-priority section never changes the threshold section's criteria.
type Digest struct {
	Notices     []Notice
	LowPriority []Notice
	Since       time.Time
	MinScore    int
}

// Total counts every notice the digest covers.
func (d Digest) Total() int {
	return len(d.Notices) + len(d.LowPriority)
}

// IDs lists every covered notice id, threshold section first.
func (d Digest) IDs() []string {
	ids := make([]string, 0, d.Total())
	for _, n := range d.Notices {
		ids = append(ids, n.ID)
	}
	for _, n := range d.LowPriority {
		ids = append(ids, n.ID)
	}
	return ids
}
