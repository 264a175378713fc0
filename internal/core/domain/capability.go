package domain

// Capability flag names.
const (
	// CapOpenAIKey reports whether an OpenAI API key is configured.
	CapOpenAIKey = "openai_api_key"

	// CapOllama reports whether a local Ollama instance answered a ping.
	CapOllama = "ollama_reachable"

	// CapGitHubToken reports whether a GitHub token is configured.
	CapGitHubToken = "github_token"

	// CapRemoteStore reports whether a remote store endpoint is
	// configured (as opposed to the embedded store).
	CapRemoteStore = "store_remote"
)

// Capabilities is a read-only snapshot of optional-dependency and
// credential availability, computed once at startup. The pipeline
// never consults it; it exists for the surrounding application to
// gate features and display status.
type Capabilities map[string]bool

// Has reports whether the named capability was detected.
func (c Capabilities) Has(name string) bool {
	return c[name]
}

// Clone returns a copy, so callers cannot mutate the snapshot held
// by others.
func (c Capabilities) Clone() Capabilities {
	out := make(Capabilities, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}
