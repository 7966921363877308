package cache

// LayoutKeyOpts are the inputs that change a computed layout besides the
// snapshot itself.
type LayoutKeyOpts struct {
	SiblingGutter float64 `json:"sibling_gutter"`
	LevelGutter   float64 `json:"level_gutter"`
	NodeWidth     float64 `json:"node_width"`
	NodeHeight    float64 `json:"node_height"`
}

// ArtifactKeyOpts are the inputs that change a rendered artifact besides the
// layout.
type ArtifactKeyOpts struct {
	Format      string  `json:"format"`
	View        string  `json:"view"`
	Width       float64 `json:"width,omitempty"`
	Height      float64 `json:"height,omitempty"`
	Transform   string  `json:"transform,omitempty"`
	Scale       float64 `json:"scale,omitempty"`
	Detailed    bool    `json:"detailed,omitempty"`
	Interactive bool    `json:"interactive,omitempty"`
	Title       string  `json:"title,omitempty"`
}

// Keyer builds cache keys.
type Keyer interface {
	LayoutKey(snapshotHash string, opts LayoutKeyOpts) string
	ArtifactKey(sourceHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes the options into the key.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayoutKey returns "layout:<sha256>".
func (DefaultKeyer) LayoutKey(snapshotHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", snapshotHash, opts)
}

// ArtifactKey returns "artifact:<sha256>".
func (DefaultKeyer) ArtifactKey(sourceHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", sourceHash, opts)
}

// ScopedKeyer prefixes every key of an inner Keyer.
//
//	perOwner := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "owner:"+ownerID+":")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the default keyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) LayoutKey(snapshotHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(snapshotHash, opts)
}

func (k *ScopedKeyer) ArtifactKey(sourceHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(sourceHash, opts)
}
