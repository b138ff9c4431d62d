package playback

import (
	"github.com/leandrodaf/playback/sdk/contracts"
)

// NewEngine creates a playback engine with the specified options.
// It applies default options and builds the synthesis device; nothing is
// loaded until Start is called on the returned engine.
//
// opts ...contracts.Option: A variadic list of option functions to customize the engine configuration.
//
// Returns:
//   - contracts.Engine: An idle playback engine.
//   - error: An error if the selected backend could not be created.
func NewEngine(opts ...contracts.Option) (contracts.Engine, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, err
	}

	engine, err := NewBackend(&options)
	if err != nil {
		return nil, err
	}

	return engine, nil
}
