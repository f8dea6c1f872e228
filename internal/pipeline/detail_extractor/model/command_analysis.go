package model

// CommandAnalysis explains why an encoder command line was needed. PrimaryReasons holds client and
// bandwidth requirements in root-cause-first order; TechnicalDetails holds implementation notes
// such as the accelerator or encoder in use.
type CommandAnalysis struct {
	Command          string
	PrimaryReasons   []string
	TechnicalDetails []string
}
