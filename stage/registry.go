package stage

import (
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/log"
)

// Logger is the package-level diagnostic logger shared by the registry
// and the demo driver, rather than a logger per stage package.
var Logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "dspstage"})

// Factory constructs a Stage from a config loader's decoded parameter
// bag. Each stage package registers its own Factory in an init() func.
type Factory func(raw Raw) (Stage, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register adds a Factory under the given type tag. Called from each
// stage package's init(); panics on a duplicate tag, since that can
// only happen from a programming mistake at link time, never from
// untrusted input.
func Register(tag string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[tag]; exists {
		panic(fmt.Sprintf("stage: factory already registered for type tag %q", tag))
	}
	registry[tag] = f
}

// New looks up the factory registered for tag and constructs a Stage
// from raw, logging the outcome either way.
func New(tag string, raw Raw) (Stage, error) {
	registryMu.RLock()
	f, ok := registry[tag]
	registryMu.RUnlock()
	if !ok {
		err := fmt.Errorf("stage: unrecognized type tag %q", tag)
		Logger.Error("stage construction failed", "type", tag, "error", err)
		return nil, err
	}
	s, err := f(raw)
	if err != nil {
		Logger.Error("stage construction failed", "type", tag, "error", err)
		return nil, err
	}
	Logger.Debug("stage constructed", "type", tag)
	return s, nil
}

// Tags returns every currently registered type tag, in no particular
// order. Used by cmd/dspstage-run's --list-stages diagnostic flag.
func Tags() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	tags := make([]string, 0, len(registry))
	for tag := range registry {
		tags = append(tags, tag)
	}
	return tags
}
