package docs

import (
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// maxRedirects bounds routing chains so a cycle cannot hang a lookup.
const maxRedirects = 10

type lookup struct {
	module *Module
	fqcn   string
}

// Library answers module documentation queries. Its contents are swapped
// whole by Replace, so readers never see a partially loaded index.
type Library struct {
	mu      sync.RWMutex
	index   *Index
	fqcns   []string
	lookups map[string]lookup // Resolved candidate lists, reset by Replace
	logger  *zap.SugaredLogger
}

func NewLibrary(logger *zap.SugaredLogger) *Library {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Library{
		index:   NewIndex(),
		lookups: make(map[string]lookup),
		logger:  logger,
	}
}

// Replace installs idx as the library contents.
func (l *Library) Replace(idx *Index) {
	if idx == nil {
		idx = NewIndex()
	}

	fqcns := make([]string, 0, len(idx.Modules)+len(idx.Routes))
	for fqcn := range idx.Modules {
		fqcns = append(fqcns, fqcn)
	}
	for fqcn, route := range idx.Routes {
		if _, exists := idx.Modules[fqcn]; exists || route.Tombstone || route.Redirect == "" {
			continue
		}
		fqcns = append(fqcns, fqcn)
	}
	slices.Sort(fqcns)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.index = idx
	l.fqcns = fqcns
	l.lookups = make(map[string]lookup)

	l.logger.Infow("Module documentation loaded", "modules", len(idx.Modules), "routes", len(idx.Routes))
}

// FindModule resolves a module reference written in a task. Candidates are
// tried in order and the first documented one wins. The second result is the
// candidate FQCN that matched, which differs from the module FQCN when the
// match went through a redirect.
func (l *Library) FindModule(name string, declared []string) (*Module, string) {
	key := name + "\x00" + strings.Join(declared, "\x00")

	l.mu.RLock()
	if hit, exists := l.lookups[key]; exists {
		l.mu.RUnlock()
		return hit.module, hit.fqcn
	}
	l.mu.RUnlock()

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if hit, exists := l.lookups[key]; exists {
		return hit.module, hit.fqcn
	}

	var hit lookup
	for _, candidate := range Candidates(name, declared) {
		if m := l.resolve(candidate); m != nil {
			hit = lookup{module: m, fqcn: candidate}
			break
		}
	}
	l.lookups[key] = hit
	return hit.module, hit.fqcn
}

// Module returns the module documented as fqcn, following redirects.
func (l *Library) Module(fqcn string) (*Module, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	m := l.resolve(fqcn)
	return m, m != nil
}

// Route returns the routing entry of fqcn.
func (l *Library) Route(fqcn string) (Route, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	r, ok := l.index.Routes[fqcn]
	return r, ok
}

// ModuleFQCNs lists every name a module can be referenced by, including
// redirects, sorted.
func (l *Library) ModuleFQCNs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.fqcns)
}

// GetCacheStats returns the number of memoized lookups and how many of them
// found nothing.
func (l *Library) GetCacheStats() (total, misses int) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	total = len(l.lookups)
	for _, hit := range l.lookups {
		if hit.module == nil {
			misses++
		}
	}
	return total, misses
}

// resolve must be called with l.mu held.
func (l *Library) resolve(fqcn string) *Module {
	for range maxRedirects {
		if m, ok := l.index.Modules[fqcn]; ok {
			return m
		}
		route, ok := l.index.Routes[fqcn]
		if !ok || route.Tombstone || route.Redirect == "" {
			return nil
		}
		fqcn = route.Redirect
	}
	l.logger.Warnw("Redirect chain too long", "fqcn", fqcn)
	return nil
}
