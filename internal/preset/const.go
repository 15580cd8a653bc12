package preset

// Container layout.
const (
	Magic         = "VST3"
	FormatVersion = 1
	HeaderSize    = 48 // Magic(4) + Version(4) + ClassID(32) + ChunkListOffset(8)
	ClassIDSize   = 32

	ChunkListTag   = "List"
	ComponentTag   = "Comp"
	ChunkEntrySize = 20 // Tag(4) + Offset(8) + Size(8)
)

// Neural Amp Modeler component state.
const (
	NAMClassID     = "F2AEE70D00DE4F4E534441613159456F"
	NAMMarker      = "###NeuralAmpModeler###"
	NAMVersion     = "0.7.13"
	ParameterCount = 12
)

// Parameter indexes into the normalized parameter vector.
const (
	ParamInput = iota
	ParamThreshold
	ParamBass
	ParamMiddle
	ParamTreble
	ParamOutput
	ParamNoiseGateActive
	ParamToneStack
	ParamIRToggle
	ParamCalibrateInput
	ParamInputCalibrationLevel
	ParamOutputMode
)
