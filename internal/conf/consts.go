// conf/consts.go hard coded constants
package conf

// Canonical audio format produced by the chunker and expected by the
// silence detector and transcription client.
const (
	TargetSampleRate = 16000 // Hz
	TargetBitDepth   = 16
	TargetChannels   = 1 // split mode; stereo mode doubles this per chunk file

	PeakNormalizeTarget  = 0.9
	SilenceRMSThreshold  = 0.01
	ResamplerChunkSize   = 1024
	ResamplerSubChunks   = 2
	ResamplerOutChannels = 1
)

// MixMode selects how a dual-source chunk is written to disk.
type MixMode string

const (
	MixModeStereo MixMode = "stereo"
	MixModeSplit  MixMode = "split"
)
