package pagecache

import (
	"sync"
	"time"
)

// ScrollDebounce is the quiet period after the last scroll event before
// the offset is saved.
const ScrollDebounce = 100 * time.Millisecond

// Viewport is the scrollable page.
type Viewport interface {
	ScrollY() int
	ScrollTo(y int)
	// NextFrame runs fn at the next rendering opportunity.
	NextFrame(fn func())
	// OnScroll subscribes fn to scroll events and returns its removal.
	OnScroll(fn func()) (remove func())
}

// RestoreScroll scrolls vp to the offset cached for path, then keeps the
// cache up to date as the user scrolls. A second call for the same path
// replaces the first. The returned teardown stops tracking.
func (c *Cache) RestoreScroll(path string, vp Viewport) (teardown func()) {
	if st, ok := c.PageState(path); ok && st.ScrollY != 0 {
		y := st.ScrollY
		vp.NextFrame(func() { vp.ScrollTo(y) })
	}

	var (
		mu      sync.Mutex
		timer   *time.Timer
		stopped bool
	)
	save := func() {
		mu.Lock()
		done := stopped
		mu.Unlock()
		if done {
			return
		}
		y := vp.ScrollY()
		c.SetPageState(path, Patch{ScrollY: &y})
	}
	onScroll := func() {
		mu.Lock()
		defer mu.Unlock()
		if stopped {
			return
		}
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(c.debounce, save)
	}

	remove := vp.OnScroll(onScroll)
	return c.register(c.scroll, path, func() {
		mu.Lock()
		stopped = true
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		remove()
	})
}

// MemoryViewport is a Viewport held in memory. NextFrame runs immediately.
type MemoryViewport struct {
	mu        sync.Mutex
	y         int
	nextID    int
	listeners map[int]func()
}

func (v *MemoryViewport) ScrollY() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.y
}

func (v *MemoryViewport) ScrollTo(y int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.y = y
}

func (v *MemoryViewport) NextFrame(fn func()) { fn() }

func (v *MemoryViewport) OnScroll(fn func()) func() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.listeners == nil {
		v.listeners = map[int]func(){}
	}
	v.nextID++
	id := v.nextID
	v.listeners[id] = fn
	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		delete(v.listeners, id)
	}
}

// Scroll moves to y as the user would, notifying subscribers.
func (v *MemoryViewport) Scroll(y int) {
	v.mu.Lock()
	v.y = y
	fns := make([]func(), 0, len(v.listeners))
	for _, fn := range v.listeners {
		fns = append(fns, fn)
	}
	v.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Listeners returns the number of scroll subscribers.
func (v *MemoryViewport) Listeners() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.listeners)
}
