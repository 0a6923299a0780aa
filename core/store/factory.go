package store

import "github.com/kilianp07/fleetops/core/factory"

var registry = factory.NewRegistry[Store]()

// Register adds a storage backend factory identified by name.
func Register(name string, f factory.Factory[Store]) error {
	return registry.Register(name, f)
}

// MustRegister is Register for package init blocks.
func MustRegister(name string, f factory.Factory[Store]) {
	registry.MustRegister(name, f)
}

// New opens the backend described by cfg.
func New(cfg factory.ModuleConfig) (Store, error) {
	return registry.Create(cfg)
}

// Backends lists the registered backend names.
func Backends() []string {
	return registry.Types()
}
