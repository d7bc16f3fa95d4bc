package climate

import (
	"container/list"
	"sync"
	"time"

	"github.com/hyperjump/glacierwatch/internal/geoproc"
)

// sampleKey identifies one monthly slice of a band over one AOI.
type sampleKey struct {
	band  string
	month string // YYYY-MM
	aoi   string // geo.Fingerprint
}

type sampleEntry struct {
	key     sampleKey
	sample  geoproc.ClimateSample
	expires time.Time
}

// SampleCache keeps recently fetched monthly climate samples. Entries expire after ttl
// because platform tile URLs are only valid for a limited time; the least recently used
// entry is evicted beyond capacity. Samples are copied in and out so callers never
// share RegionStats.
type SampleCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	now      func() time.Time
	entries  map[sampleKey]*list.Element
	order    *list.List // front is most recently used
}

// NewSampleCache creates a cache holding up to capacity samples for ttl each.
// A non-positive ttl disables expiry.
func NewSampleCache(capacity int, ttl time.Duration) *SampleCache {
	return &SampleCache{
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		entries:  make(map[sampleKey]*list.Element),
		order:    list.New(),
	}
}

// Get returns a copy of the cached sample, or false when absent or expired.
func (c *SampleCache) Get(band string, month time.Time, aoi string) (*geoproc.ClimateSample, bool) {
	key := sampleKey{band: band, month: month.Format("2006-01"), aoi: aoi}
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	e := elem.Value.(*sampleEntry)
	if c.ttl > 0 && !c.now().Before(e.expires) {
		c.order.Remove(elem)
		delete(c.entries, key)
		return nil, false
	}
	c.order.MoveToFront(elem)
	return cloneSample(&e.sample), true
}

// Put stores a copy of s. Samples without images are not cached.
func (c *SampleCache) Put(band string, month time.Time, aoi string, s *geoproc.ClimateSample) {
	if s == nil || s.ImageCount == 0 {
		return
	}
	key := sampleKey{band: band, month: month.Format("2006-01"), aoi: aoi}
	c.mu.Lock()
	defer c.mu.Unlock()

	e := &sampleEntry{key: key, sample: *cloneSample(s), expires: c.now().Add(c.ttl)}
	if elem, ok := c.entries[key]; ok {
		elem.Value = e
		c.order.MoveToFront(elem)
		return
	}
	c.entries[key] = c.order.PushFront(e)
	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*sampleEntry).key)
	}
}

// Len returns the number of cached samples, expired ones included until touched.
func (c *SampleCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func cloneSample(s *geoproc.ClimateSample) *geoproc.ClimateSample {
	out := *s
	if s.Stats != nil {
		stats := *s.Stats
		out.Stats = &stats
	}
	return &out
}
