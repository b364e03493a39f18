package cache

// PreviewKeyOpts are the render settings that affect a preview image.
type PreviewKeyOpts struct {
	Width     int     `json:"w"`
	Height    int     `json:"h"`
	VideoHash string  `json:"v,omitempty"`
	Time      float64 `json:"t,omitempty"`
}

// Keyer generates cache keys.
type Keyer interface {
	// PreviewKey identifies a rendered preview for a params hash.
	PreviewKey(paramsHash string, opts PreviewKeyOpts) string
	// ProbeKey identifies probe metadata for a video file.
	ProbeKey(path string, size int64, modUnix int64) string
}

// DefaultKeyer produces "kind:sha256" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// PreviewKey implements Keyer.
func (DefaultKeyer) PreviewKey(paramsHash string, opts PreviewKeyOpts) string {
	return hashKey("preview", paramsHash, opts)
}

// ProbeKey implements Keyer.
func (DefaultKeyer) ProbeKey(path string, size int64, modUnix int64) string {
	return hashKey("probe", path, size, modUnix)
}
