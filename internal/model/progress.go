package model

import "sync"

// Progress fans a monotonically non-decreasing percentage out to
// subscribers. Late subscribers immediately receive the latest value, so a
// caller attaching after the load finished still observes 100.
type Progress struct {
	mu   sync.Mutex
	last float64
	subs []func(float64)
}

// Subscribe registers fn for every subsequent update and replays the
// current value right away.
func (p *Progress) Subscribe(fn func(float64)) {
	if fn == nil {
		return
	}
	p.mu.Lock()
	p.subs = append(p.subs, fn)
	last := p.last
	p.mu.Unlock()
	fn(last)
}

// Publish advances the percentage. Values below the current one are
// dropped so the sequence never regresses.
func (p *Progress) Publish(pct float64) {
	if pct > 100 {
		pct = 100
	}
	p.mu.Lock()
	if pct <= p.last {
		p.mu.Unlock()
		return
	}
	p.last = pct
	subs := append(([]func(float64))(nil), p.subs...)
	p.mu.Unlock()
	for _, fn := range subs {
		fn(pct)
	}
}

// Current returns the latest published percentage.
func (p *Progress) Current() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}
