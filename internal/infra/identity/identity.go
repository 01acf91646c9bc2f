// Package identity exposes the authenticated player identifier. The
// engine consumes only the identifier and a change subscription; the
// auth provider's internals stay outside this repository.
package identity

import "sync"

// Provider reports the current signed-in player id.
type Provider interface {
	// CurrentID returns the signed-in identifier, or "" when signed out.
	CurrentID() string

	// OnChange registers a callback invoked on every sign-in/out. The
	// returned function unsubscribes.
	OnChange(fn func(id string)) (unsubscribe func())
}

// StaticProvider is an in-process Provider driven by explicit SignIn and
// SignOut calls. The simulator and tests use it directly; an app embeds
// it behind its auth SDK's listener.
type StaticProvider struct {
	mu      sync.Mutex
	id      string
	subs    map[int]func(string)
	nextSub int
}

// NewStaticProvider creates a provider, optionally already signed in.
func NewStaticProvider(id string) *StaticProvider {
	return &StaticProvider{
		id:   id,
		subs: make(map[int]func(string)),
	}
}

func (p *StaticProvider) CurrentID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.id
}

func (p *StaticProvider) OnChange(fn func(id string)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := p.nextSub
	p.nextSub++
	p.subs[key] = fn

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subs, key)
	}
}

// SignIn sets the identifier and notifies subscribers.
func (p *StaticProvider) SignIn(id string) {
	p.notify(id)
}

// SignOut clears the identifier and notifies subscribers.
func (p *StaticProvider) SignOut() {
	p.notify("")
}

func (p *StaticProvider) notify(id string) {
	p.mu.Lock()
	p.id = id
	subs := make([]func(string), 0, len(p.subs))
	for _, fn := range p.subs {
		subs = append(subs, fn)
	}
	p.mu.Unlock()

	for _, fn := range subs {
		fn(id)
	}
}
