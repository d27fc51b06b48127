package hotkey

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

type binding struct {
	callback func()
	seq      uint64
}

// Manager keeps the registry of hotkey specifications and one Listener
// built from the whole registry.
//
// Every Register or Unregister that changes the registry stops the current
// listener and replaces it with a new one that is not started. Call Start
// again to resume capture, or build the Manager WithAutoRestart(true).
type Manager struct {
	log         zerolog.Logger
	newListener ListenerFactory
	autoRestart bool

	mu       sync.Mutex
	hotkeys  map[string]binding
	seq      uint64
	listener Listener
	running  bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. The default discards output.
func WithLogger(log zerolog.Logger) Option {
	return func(m *Manager) {
		m.log = log
	}
}

// WithListenerFactory sets how listeners are built, typically
// xlistener.Factory. Without it Start fails with ErrNoListener.
func WithListenerFactory(f ListenerFactory) Option {
	return func(m *Manager) {
		m.newListener = f
	}
}

// WithAutoRestart makes a rebuild start the new listener when the previous
// one was running.
func WithAutoRestart(on bool) Option {
	return func(m *Manager) {
		m.autoRestart = on
	}
}

// NewManager creates a Manager with an empty registry and no listener.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		log:     zerolog.Nop(),
		hotkeys: make(map[string]binding),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.newListener == nil {
		m.newListener = nopFactory
	}
	return m
}

// Register binds callback to spec, replacing any callback already bound to
// the same spec. The registry is left untouched if spec does not parse.
func (m *Manager) Register(spec string, callback func()) error {
	if _, err := Parse(spec); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	m.hotkeys[spec] = binding{callback: callback, seq: m.seq}
	m.log.Debug().Str("hotkey", spec).Msg("Registered hotkey")

	return m.rebuildLocked()
}

// Unregister removes spec. Unknown specs are ignored.
func (m *Manager) Unregister(spec string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.hotkeys[spec]; !ok {
		return
	}
	delete(m.hotkeys, spec)
	m.log.Debug().Str("hotkey", spec).Msg("Unregistered hotkey")

	if err := m.rebuildLocked(); err != nil {
		m.log.Error().Err(err).Msg("Failed to restart hotkey listener")
	}
}

// Start begins capture. It does nothing when no hotkey is registered.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.listener == nil {
		return nil
	}
	if err := m.listener.Start(); err != nil {
		return fmt.Errorf("start hotkey listener: %w", err)
	}
	m.running = true
	return nil
}

// Stop ends capture. It does nothing when no hotkey is registered.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.listener == nil {
		return
	}
	m.listener.Stop()
	m.running = false
}

// Running reports whether the current listener has been started.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Specs returns the registered specifications, sorted.
func (m *Manager) Specs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	specs := make([]string, 0, len(m.hotkeys))
	for spec := range m.hotkeys {
		specs = append(specs, spec)
	}
	sort.Strings(specs)
	return specs
}

// rebuildLocked replaces the listener with one built from the full registry.
// Specs sharing a normalized form resolve to the most recently registered.
// The only error comes from auto-restart.
func (m *Manager) rebuildLocked() error {
	wasRunning := m.running
	if m.listener != nil {
		m.listener.Stop()
		m.listener = nil
		m.running = false
	}

	specs := make([]string, 0, len(m.hotkeys))
	for spec := range m.hotkeys {
		specs = append(specs, spec)
	}
	sort.Slice(specs, func(i, j int) bool {
		return m.hotkeys[specs[i]].seq < m.hotkeys[specs[j]].seq
	})

	mapping := make(map[string]func(), len(specs))
	for _, spec := range specs {
		normalized, err := Parse(spec)
		if err != nil {
			// Register validated it already.
			continue
		}
		mapping[normalized] = m.hotkeys[spec].callback
	}

	if len(mapping) == 0 {
		m.log.Debug().Msg("No hotkeys registered, listener removed")
		return nil
	}

	m.listener = m.newListener(mapping)
	m.log.Debug().Int("hotkeys", len(mapping)).Msg("Rebuilt hotkey listener")

	if m.autoRestart && wasRunning {
		if err := m.listener.Start(); err != nil {
			return fmt.Errorf("restart hotkey listener: %w", err)
		}
		m.running = true
	}
	return nil
}
