package cache

import "fmt"

// NewStore builds the backend selected by cfg.
func NewStore(cfg Config) (Store, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid cache config: %w", err)
	}

	switch cfg.Backend {
	case "memory":
		return NewMemoryStore(), nil
	case "disk":
		return NewDiskStore(cfg.Dir)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
