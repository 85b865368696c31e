package manager

import "sync"

// MemoryPublisher records manager events in publish order. When Limit is
// positive only the most recent Limit events are kept.
type MemoryPublisher struct {
	Limit int

	mu  sync.Mutex
	log []Event
}

func NewMemoryPublisher() *MemoryPublisher { return &MemoryPublisher{} }

func (p *MemoryPublisher) Publish(e Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.log = append(p.log, e)
	if p.Limit > 0 && len(p.log) > p.Limit {
		p.log = append(p.log[:0:0], p.log[len(p.log)-p.Limit:]...)
	}
}

// Events returns a copy of the recorded events.
func (p *MemoryPublisher) Events() []Event {
	return p.filter(func(Event) bool { return true })
}

// ForModel returns the recorded events that concern modelID.
func (p *MemoryPublisher) ForModel(modelID string) []Event {
	return p.filter(func(e Event) bool { return e.ModelID == modelID })
}

// Names returns the event names in publish order.
func (p *MemoryPublisher) Names() []string {
	evs := p.Events()
	out := make([]string, len(evs))
	for i, e := range evs {
		out[i] = e.Name
	}
	return out
}

func (p *MemoryPublisher) filter(keep func(Event) bool) []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, 0, len(p.log))
	for _, e := range p.log {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}
