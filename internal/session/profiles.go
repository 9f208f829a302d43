package session

import (
	"time"

	"github.com/leedalei/lol-random-hero-selector/internal/identity"
)

type Profile struct {
	Name        string
	LastUpdated time.Time
}

// Profiles remembers the last display name per identity for the life of the
// process, across disconnects.
type Profiles struct {
	byID map[identity.Identity]Profile
}

func NewProfiles() *Profiles {
	return &Profiles{byID: make(map[identity.Identity]Profile)}
}

func (p *Profiles) Set(id identity.Identity, name string, now time.Time) {
	p.byID[id] = Profile{Name: name, LastUpdated: now}
}

func (p *Profiles) Get(id identity.Identity) (Profile, bool) {
	pr, ok := p.byID[id]
	return pr, ok
}

func (p *Profiles) Name(id identity.Identity) (string, bool) {
	pr, ok := p.byID[id]
	return pr.Name, ok
}

func (p *Profiles) Len() int { return len(p.byID) }
