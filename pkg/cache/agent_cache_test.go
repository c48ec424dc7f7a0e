package cache

import (
	"fmt"
	"net/http"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// fakeAgent counts how often it was disposed.
type fakeAgent struct {
	name string

	mu        sync.Mutex
	disposals int
}

func newFakeAgent(name string) *fakeAgent {
	return &fakeAgent{name: name}
}

func (a *fakeAgent) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, fmt.Errorf("fake agent %s does not round trip", a.name)
}

func (a *fakeAgent) Dispose() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.disposals++
}

func (a *fakeAgent) Disposals() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.disposals
}

// plainAgent has no disposal hook.
type plainAgent struct{}

func (plainAgent) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, nil
}

var _ = Describe("AgentCache", func() {
	var (
		c        *AgentCache
		disposed []string
	)

	newCache := func(size int) *AgentCache {
		disposed = nil
		ac, err := New(size, func(key string) {
			disposed = append(disposed, key)
		})
		Expect(err).NotTo(HaveOccurred())
		return ac
	}

	BeforeEach(func() {
		c = newCache(2)
	})

	Context("New", func() {
		It("falls back to the default size", func() {
			ac, err := New(0, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(ac.Capacity()).To(Equal(DefaultSize))
		})
	})

	Context("Get", func() {
		It("returns the same instance that was stored", func() {
			a := newFakeAgent("a")
			c.Add("a", a)

			got, ok := c.Get("a")
			Expect(ok).To(BeTrue())
			Expect(got).To(BeIdenticalTo(a))
		})

		It("reports absent keys", func() {
			got, ok := c.Get("missing")
			Expect(ok).To(BeFalse())
			Expect(got).To(BeNil())
			Expect(c.Stats().Misses).To(Equal(uint64(1)))
		})

		It("refreshes recency", func() {
			a, b, d := newFakeAgent("a"), newFakeAgent("b"), newFakeAgent("d")
			c.Add("a", a)
			c.Add("b", b)

			_, ok := c.Get("a")
			Expect(ok).To(BeTrue())

			c.Add("d", d)
			Expect(c.Contains("a")).To(BeTrue())
			Expect(c.Contains("b")).To(BeFalse())
			Expect(b.Disposals()).To(Equal(1))
			Expect(a.Disposals()).To(Equal(0))
		})
	})

	Context("eviction", func() {
		It("evicts and disposes the least recently used entry exactly once", func() {
			a, b, d := newFakeAgent("a"), newFakeAgent("b"), newFakeAgent("d")
			c.Add("a", a)
			c.Add("b", b)
			c.Add("d", d)

			Expect(c.Len()).To(Equal(2))
			Expect(a.Disposals()).To(Equal(1))
			Expect(disposed).To(Equal([]string{"a"}))

			_, ok := c.Get("a")
			Expect(ok).To(BeFalse())

			stats := c.Stats()
			Expect(stats.Evictions).To(Equal(uint64(1)))
			Expect(stats.Disposals).To(Equal(uint64(1)))
		})

		It("never grows beyond its bound", func() {
			for i := range 10 {
				c.Add(fmt.Sprintf("k%d", i), newFakeAgent("x"))
				Expect(c.Len()).To(BeNumerically("<=", 2))
			}
			Expect(c.Keys()).To(Equal([]string{"k8", "k9"}))
		})

		It("drops handles without a disposal hook", func() {
			c.Add("a", plainAgent{})
			c.Add("b", plainAgent{})
			c.Add("d", plainAgent{})
			Expect(c.Contains("a")).To(BeFalse())
			Expect(disposed).To(Equal([]string{"a"}))
		})
	})

	Context("GetOrAdd", func() {
		It("keeps the first handle stored under a key", func() {
			first, second := newFakeAgent("first"), newFakeAgent("second")

			got, added := c.GetOrAdd("k", first)
			Expect(added).To(BeTrue())
			Expect(got).To(BeIdenticalTo(first))

			got, added = c.GetOrAdd("k", second)
			Expect(added).To(BeFalse())
			Expect(got).To(BeIdenticalTo(first))
			Expect(second.Disposals()).To(Equal(0))
		})
	})

	Context("Add", func() {
		It("disposes the handle it replaces", func() {
			first, second := newFakeAgent("first"), newFakeAgent("second")
			c.Add("k", first)
			c.Add("k", second)

			Expect(first.Disposals()).To(Equal(1))
			got, ok := c.Get("k")
			Expect(ok).To(BeTrue())
			Expect(got).To(BeIdenticalTo(second))
			Expect(c.Stats().Evictions).To(BeZero())
		})
	})

	Context("Clear", func() {
		It("disposes every entry and empties the cache", func() {
			a, b := newFakeAgent("a"), newFakeAgent("b")
			c.Add("a", a)
			c.Add("b", b)

			c.Clear()

			Expect(c.Len()).To(BeZero())
			Expect(a.Disposals()).To(Equal(1))
			Expect(b.Disposals()).To(Equal(1))
			Expect(disposed).To(ConsistOf("a", "b"))
			Expect(c.Stats().Evictions).To(BeZero())
		})

		It("does nothing on an empty cache", func() {
			Expect(c.Clear).NotTo(Panic())
			Expect(c.Len()).To(BeZero())
			Expect(disposed).To(BeEmpty())
		})

		It("stores fresh handles afterwards", func() {
			a := newFakeAgent("a")
			c.Add("a", a)
			c.Clear()

			fresh := newFakeAgent("a")
			c.Add("a", fresh)
			got, ok := c.Get("a")
			Expect(ok).To(BeTrue())
			Expect(got).To(BeIdenticalTo(fresh))
			Expect(fresh.Disposals()).To(BeZero())
		})
	})

	Context("Remove", func() {
		It("disposes the removed handle", func() {
			a := newFakeAgent("a")
			c.Add("a", a)
			Expect(c.Remove("a")).To(BeTrue())
			Expect(c.Remove("a")).To(BeFalse())
			Expect(a.Disposals()).To(Equal(1))
		})
	})

	Context("concurrent use", func() {
		It("keeps a single handle per key", func() {
			c = newCache(DefaultSize)
			var wg sync.WaitGroup
			results := make(chan http.RoundTripper, 50)
			for i := range 50 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					got, _ := c.GetOrAdd("shared", newFakeAgent(fmt.Sprint(i)))
					results <- got
				}()
			}
			wg.Wait()
			close(results)

			first := <-results
			for got := range results {
				Expect(got).To(BeIdenticalTo(first))
			}
			Expect(c.Len()).To(Equal(1))
		})
	})
})
