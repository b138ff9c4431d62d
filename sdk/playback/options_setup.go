package playback

import (
	"time"

	"github.com/leandrodaf/playback/internal/logger"
	"github.com/leandrodaf/playback/sdk/contracts"
)

// applyDefaultOptions sets default values for EngineOptions if not explicitly provided.
//
// opts ...contracts.Option: A variadic list of option functions that can modify EngineOptions.
//
// Returns:
//   - contracts.EngineOptions: A structure containing the finalized engine options with defaults applied.
//   - error: An error if there was an issue applying the options.
func applyDefaultOptions(opts ...contracts.Option) (contracts.EngineOptions, error) {
	options := &contracts.EngineOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if options.Logger == nil {
		options.Logger = logger.NewZapLogger()
	}
	if options.LogFilePath != "" {
		options.Logger.SetDestination(contracts.FileLog, options.LogFilePath)
	}
	if options.Debug && options.LogLevel == contracts.InfoLevel {
		options.LogLevel = contracts.DebugLevel
	}
	if options.SoundfontPath == "" {
		options.SoundfontPath = contracts.DefaultSoundfontPath
	}
	if options.Backend == "" {
		options.Backend = contracts.SoftSynthBackend
	}
	if options.DevicePacing == nil {
		pacing := contracts.DefaultDevicePacing
		options.DevicePacing = &pacing
	}
	if options.SongLength <= 0 {
		options.SongLength = contracts.DefaultSongLength
	}
	if options.CoreMIDIConfig == nil {
		options.CoreMIDIConfig = &contracts.CoreMIDIConfig{ClientName: "GO Playback Engine"}
	}
	if options.SoftSynthConfig == nil {
		options.SoftSynthConfig = &contracts.SoftSynthConfig{}
	}
	if options.SoftSynthConfig.SampleRate <= 0 {
		options.SoftSynthConfig.SampleRate = 44100
	}
	if options.SoftSynthConfig.BufferSize <= 0 {
		options.SoftSynthConfig.BufferSize = 50 * time.Millisecond
	}

	options.Logger.SetLevel(options.LogLevel)
	return *options, nil
}
