package metrics

import (
	"testing"
	"time"
)

func TestRecordTiming(t *testing.T) {
	c := NewCollector()

	c.RecordTiming(OpSearch, 10*time.Millisecond)
	c.RecordTiming(OpSearch, 30*time.Millisecond)

	snap := c.Snapshot()
	if snap.Search == nil {
		t.Fatal("expected search metrics")
	}
	if snap.Search.Count != 2 {
		t.Errorf("Count = %d, want 2", snap.Search.Count)
	}
	if snap.Search.MinTimeMs != 10 || snap.Search.MaxTimeMs != 30 {
		t.Errorf("Min/Max = %d/%d, want 10/30", snap.Search.MinTimeMs, snap.Search.MaxTimeMs)
	}
	if snap.Search.AvgTimeMs != 20 {
		t.Errorf("AvgTimeMs = %v, want 20", snap.Search.AvgTimeMs)
	}
	if snap.Answer != nil {
		t.Error("untouched operations should snapshot as nil")
	}
}

func TestRecordCache(t *testing.T) {
	c := NewCollector()

	c.RecordCache(CacheSearch, true)
	c.RecordCache(CacheSearch, true)
	c.RecordCache(CacheSearch, false)

	snap := c.Snapshot()
	if snap.SearchCache.Hits != 2 || snap.SearchCache.Misses != 1 {
		t.Errorf("Hits/Misses = %d/%d, want 2/1", snap.SearchCache.Hits, snap.SearchCache.Misses)
	}
	if want := 2.0 / 3.0; snap.SearchCache.HitRate != want {
		t.Errorf("HitRate = %v, want %v", snap.SearchCache.HitRate, want)
	}
	if snap.AnswerCache.Hits != 0 || snap.AnswerCache.HitRate != 0 {
		t.Error("untouched surfaces should report zero")
	}
}
