package ir

// Version constants for the template language and engine.
const (
	// TemplateVersion is the template language version recorded with each run.
	TemplateVersion = "1"

	// EngineVersion is the narrate engine version.
	EngineVersion = "0.1.0"
)
