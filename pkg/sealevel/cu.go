package sealevel

// Compute unit charges. Derivation attempts are charged per hash, invocations
// per frame entry, and each program entry point carries a flat default.
const (
	CULogUnits                             = 100
	CUCreateProgramAddressUnits            = 1500
	CUInvokeUnits                          = 1000
	CUSystemProgramDefaultComputeUnits     = 150
	CURegisteredProgramDefaultComputeUnits = 200
)
