package cache

// ScopedKeyer wraps a Keyer with a prefix so that several deployments can share
// one backend without colliding.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "overlay3d:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// PreviewKey generates a prefixed preview key.
func (k *ScopedKeyer) PreviewKey(paramsHash string, opts PreviewKeyOpts) string {
	return k.prefix + k.inner.PreviewKey(paramsHash, opts)
}

// ProbeKey generates a prefixed probe key.
func (k *ScopedKeyer) ProbeKey(path string, size int64, modUnix int64) string {
	return k.prefix + k.inner.ProbeKey(path, size, modUnix)
}
