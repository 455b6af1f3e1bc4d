package maps

import (
	"strconv"
	"strings"
	"sync"
)

const subdomains = "abc"

// TileSource expands tile URL templates and fails over to the alternate
// template once the primary has failed threshold times. The switch is one
// way for the lifetime of the process.
type TileSource struct {
	mu        sync.Mutex
	templates []string
	active    int
	failures  int
	threshold int
	onSwitch  func(from, to string)
}

// NewTileSource creates a tile source. alternate may be empty, in which
// case failures are counted but nothing switches.
func NewTileSource(primary, alternate string, threshold int) *TileSource {
	if threshold <= 0 {
		threshold = 1
	}
	templates := []string{primary}
	if alternate != "" {
		templates = append(templates, alternate)
	}
	return &TileSource{templates: templates, threshold: threshold}
}

// OnSwitch registers a callback run when the source fails over.
func (t *TileSource) OnSwitch(fn func(from, to string)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSwitch = fn
}

// URL expands the active template for tile z/x/y and returns it together
// with the template it came from.
func (t *TileSource) URL(z, x, y int) (string, string) {
	t.mu.Lock()
	tmpl := t.templates[t.active]
	t.mu.Unlock()
	return ExpandTile(tmpl, z, x, y), tmpl
}

// Template returns the active template.
func (t *TileSource) Template() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.templates[t.active]
}

// Failures returns the failure count of the active template.
func (t *TileSource) Failures() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.failures
}

// ReportFailure records a failed fetch made with tmpl. Failures of a
// template that is no longer active are ignored. It reports whether this
// failure caused a switch.
func (t *TileSource) ReportFailure(tmpl string) bool {
	t.mu.Lock()
	if tmpl != t.templates[t.active] {
		t.mu.Unlock()
		return false
	}
	t.failures++
	if t.failures < t.threshold || t.active+1 >= len(t.templates) {
		t.mu.Unlock()
		return false
	}
	from := t.templates[t.active]
	t.active++
	t.failures = 0
	to := t.templates[t.active]
	fn := t.onSwitch
	t.mu.Unlock()

	if fn != nil {
		fn(from, to)
	}
	return true
}

// ExpandTile fills {s}, {z}, {x}, {y} and {r} in tmpl.
func ExpandTile(tmpl string, z, x, y int) string {
	s := string(subdomains[(x+y)%len(subdomains)])
	r := strings.NewReplacer(
		"{s}", s,
		"{z}", strconv.Itoa(z),
		"{x}", strconv.Itoa(x),
		"{y}", strconv.Itoa(y),
		"{r}", "",
	)
	return r.Replace(tmpl)
}

// ValidTile reports whether z/x/y addresses an existing tile.
func ValidTile(z, x, y int) bool {
	if z < 0 || z > 22 || x < 0 || y < 0 {
		return false
	}
	n := 1 << uint(z)
	return x < n && y < n
}
