// Package auth provides the identity boundary: who the caller is, whether
// they are authenticated, and the JWT/password plumbing the HTTP layer uses.
package auth

import (
	"sync"

	"github.com/google/uuid"
)

// Provider supplies the authentication signal the backend selector keys on.
// Absence of a provider means ephemeral-only, forever.
type Provider interface {
	// Authenticated reports whether a subject is attached. Computed
	// synchronously and cheaply; reachability is not its concern.
	Authenticated() bool
	// Subject returns the opaque subject identifier, uuid.Nil when anonymous.
	Subject() uuid.UUID
}

// StaticProvider is a Provider whose state is set directly. Used by the CLI
// and by tests; flipping SetSubject is the identity transition.
type StaticProvider struct {
	mu      sync.Mutex
	subject uuid.UUID
}

// NewAnonymous returns a provider with no subject attached.
func NewAnonymous() *StaticProvider {
	return &StaticProvider{}
}

// NewStaticProvider returns a provider already authenticated as subject.
func NewStaticProvider(subject uuid.UUID) *StaticProvider {
	return &StaticProvider{subject: subject}
}

// Authenticated implements Provider.
func (p *StaticProvider) Authenticated() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.subject != uuid.Nil
}

// Subject implements Provider.
func (p *StaticProvider) Subject() uuid.UUID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.subject
}

// SetSubject attaches (or with uuid.Nil detaches) the authenticated subject.
func (p *StaticProvider) SetSubject(subject uuid.UUID) {
	p.mu.Lock()
	p.subject = subject
	p.mu.Unlock()
}
