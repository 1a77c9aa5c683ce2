package resolve

import (
	"sync"
	"testing"
	"time"

	"lacquer/internal/badge"
)

func TestCacheExpiry(t *testing.T) {
	cache := NewCache(time.Minute)
	now := time.Unix(1_700_000_000, 0)
	cache.now = func() time.Time { return now }

	cache.Put("item-1", badge.TypeAudio, badge.Data{Value: "truehd"})
	if _, ok := cache.Get("item-1", badge.TypeAudio); !ok {
		t.Fatal("expected fresh entry")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := cache.Get("item-1", badge.TypeAudio); ok {
		t.Fatal("expected entry to expire")
	}
	if remaining := cache.PurgeExpired(); remaining != 0 {
		t.Fatalf("expected purge to empty cache, %d remain", remaining)
	}
}

func TestCacheConcurrentIdempotentWrites(t *testing.T) {
	cache := NewCache(time.Hour)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				cache.Put("item-1", badge.TypeReview, badge.Data{Value: "percent", Score: 75})
				cache.Get("item-1", badge.TypeReview)
			}
		}()
	}
	wg.Wait()

	data, ok := cache.Get("item-1", badge.TypeReview)
	if !ok || data.Score != 75 {
		t.Fatalf("unexpected cache state: %+v ok=%v", data, ok)
	}
}
