package routing

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/paulmach/orb"
)

func TestGraphCachePutGet(t *testing.T) {
	c := NewGraphCache()
	if _, ok := c.Get("downtown"); ok {
		t.Fatalf("expected empty cache")
	}

	g := BuildGraph(chainPipes())
	c.Put("downtown", g)
	c.Put("airport", BuildGraph(nil))

	got, ok := c.Get("downtown")
	if !ok || got != g {
		t.Errorf("expected the stored graph back")
	}
	names := c.Names()
	if len(names) != 2 || names[0] != "airport" || names[1] != "downtown" {
		t.Errorf("unexpected names %v", names)
	}

	c.Invalidate("downtown")
	if _, ok := c.Get("downtown"); ok {
		t.Errorf("expected downtown to be invalidated")
	}
}

func TestGraphCacheGetOrBuildCoalesces(t *testing.T) {
	c := NewGraphCache()
	var builds int32
	release := make(chan struct{})

	build := func() (*Graph, error) {
		atomic.AddInt32(&builds, 1)
		<-release
		return BuildGraph(chainPipes()), nil
	}

	var wg sync.WaitGroup
	graphs := make([]*Graph, 8)
	for i := range graphs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			g, err := c.GetOrBuild("downtown", build)
			if err != nil {
				t.Errorf("GetOrBuild returned error: %v", err)
				return
			}
			graphs[i] = g
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := atomic.LoadInt32(&builds); n != 1 {
		t.Errorf("expected exactly one build, got %d", n)
	}
	for i, g := range graphs {
		if g == nil || g != graphs[0] {
			t.Errorf("goroutine %d got a different graph", i)
		}
	}

	again, err := c.GetOrBuild("downtown", func() (*Graph, error) {
		t.Fatalf("build should not run on a cache hit")
		return nil, nil
	})
	if err != nil || again != graphs[0] {
		t.Errorf("expected cached graph on hit")
	}
}

func TestGraphCacheGetOrBuildError(t *testing.T) {
	c := NewGraphCache()
	boom := errors.New("boom")

	if _, err := c.GetOrBuild("broken", func() (*Graph, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected build error, got %v", err)
	}
	if _, ok := c.Get("broken"); ok {
		t.Errorf("failed build should not be cached")
	}

	g, err := c.GetOrBuild("broken", func() (*Graph, error) {
		return BuildGraph([]orb.LineString{{{0, 0}, {1, 1}}}), nil
	})
	if err != nil || g.NodeCount() != 2 {
		t.Errorf("expected retry to build, got %v err=%v", g, err)
	}
}
