// Package identity derives and persists the synthetic visitor phone number
// that scopes a chat log. The number is a pseudonym, not a credential: it
// only needs to be stable across restarts and unique enough to keep two
// visitors' logs apart.
package identity

import (
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/lenaai/lenachat/pkg/logger"
)

var prefixes = []string{"010", "011", "012", "015"}

const digits = 8

// Provider hands out the visitor identity, creating and persisting one on
// first use. If the state dir is unwritable it degrades to a memory-only
// identity for the lifetime of the process.
type Provider struct {
	dir string
	mu  sync.Mutex

	current  string
	memOnly  bool
	warned   bool
	randFunc func(int) int // swapped in tests
}

func NewProvider(stateDir string) *Provider {
	return &Provider{dir: stateDir, randFunc: rand.Intn}
}

func (p *Provider) path() string {
	return filepath.Join(p.dir, "identity")
}

// GetOrCreate returns the persisted identity, generating and persisting a
// fresh one when none exists. Idempotent across calls and restarts.
func (p *Provider) GetOrCreate() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current != "" {
		return p.current
	}

	if data, err := os.ReadFile(p.path()); err == nil {
		id := strings.TrimSpace(string(data))
		if id != "" {
			p.current = id
			return id
		}
	}

	p.current = p.generate()
	p.persist(p.current)
	return p.current
}

// Regenerate forces a new identity and persists it, replacing any previous
// value. Used by the clear-chat flow.
func (p *Provider) Regenerate() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = p.generate()
	p.persist(p.current)
	return p.current
}

func (p *Provider) generate() string {
	var b strings.Builder
	b.WriteString(prefixes[p.randFunc(len(prefixes))])
	for i := 0; i < digits; i++ {
		b.WriteByte(byte('0' + p.randFunc(10)))
	}
	return b.String()
}

func (p *Provider) persist(id string) {
	if p.memOnly {
		return
	}
	if err := os.MkdirAll(p.dir, 0755); err == nil {
		err = os.WriteFile(p.path(), []byte(id+"\n"), 0644)
		if err == nil {
			return
		}
	}
	p.memOnly = true
	if !p.warned {
		p.warned = true
		logger.WarnCF("identity", "State dir unwritable, identity is memory-only", map[string]interface{}{
			"dir": p.dir,
		})
	}
}
