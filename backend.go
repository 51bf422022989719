package seamcarve

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// Backend is an energy computer with an explicit lifecycle.
type Backend interface {
	EnergyComputer
	Name() string
	Close() error
}

// BackendConfig carries the settings a factory may need.
type BackendConfig struct {
	// Workers is the CPU row-band parallelism. Values below 2 are serial.
	Workers int
	// ShaderDir overrides the embedded GPU shader sources when non-empty.
	ShaderDir string
}

// BackendFactory creates a ready-to-use backend. A factory returns an error
// wrapping ErrFallbackToCPU when the backend cannot run on this host.
type BackendFactory func(cfg BackendConfig) (Backend, error)

var (
	backendsMu sync.RWMutex
	factories  = map[string]BackendFactory{
		"cpu": func(cfg BackendConfig) (Backend, error) {
			return NewCPUEnergy(cfg.Workers), nil
		},
	}
	live = map[*openBackend]struct{}{}
)

// RegisterBackend makes a backend available under name. Registering an
// existing name replaces it.
//
// GPU packages register themselves from init:
//
//	func init() {
//	    seamcarve.RegisterBackend("gpu-render", openRender)
//	}
func RegisterBackend(name string, f BackendFactory) error {
	if name == "" || f == nil {
		return errors.New("seamcarve: backend name and factory must be set")
	}
	backendsMu.Lock()
	factories[name] = f
	backendsMu.Unlock()
	return nil
}

// Backends returns the registered backend names in sorted order.
func Backends() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	names := make([]string, 0, len(factories))
	for n := range factories {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// OpenBackend creates the named backend and hands it the current logger.
// The returned backend stays subject to SetLogger until it is closed.
func OpenBackend(name string, cfg BackendConfig) (Backend, error) {
	backendsMu.RLock()
	f, ok := factories[name]
	backendsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (have %v)", ErrUnknownBackend, name, Backends())
	}

	b, err := f(cfg)
	if err != nil {
		return nil, fmt.Errorf("open backend %q: %w", name, err)
	}
	propagateLogger(b, Logger())

	ob := &openBackend{Backend: b}
	backendsMu.Lock()
	live[ob] = struct{}{}
	backendsMu.Unlock()
	return ob, nil
}

// Unwrap returns the backend created by the factory, for callers that need
// implementation-specific methods.
func Unwrap(b Backend) Backend {
	if ob, ok := b.(*openBackend); ok {
		return ob.Backend
	}
	return b
}

func openBackends() []Backend {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	out := make([]Backend, 0, len(live))
	for ob := range live {
		out = append(out, ob.Backend)
	}
	return out
}

// openBackend tracks a backend between OpenBackend and Close so SetLogger
// can reach it.
type openBackend struct {
	Backend
	once sync.Once
}

func (b *openBackend) Close() error {
	var err error
	b.once.Do(func() {
		backendsMu.Lock()
		delete(live, b)
		backendsMu.Unlock()
		err = b.Backend.Close()
	})
	return err
}

// SetLogger forwards to the wrapped backend.
func (b *openBackend) SetLogger(l *slog.Logger) {
	propagateLogger(b.Backend, l)
}
