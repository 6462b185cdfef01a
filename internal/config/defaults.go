package config

// Engine defaults.
const (
	DefaultMergeExisting = false
	DefaultInjectAtEnd   = false
	DefaultCollectMeta   = false
	DefaultMaxSourceSize = "1MiB"
)

// Logging defaults.
const (
	DefaultLogLevel = "info"
	DefaultLogJSON  = false
)

// DefaultExtensions lists the file extensions treated as ECMAScript-family
// sources.
func DefaultExtensions() []string {
	return []string{".js", ".mjs", ".cjs", ".jsx", ".ts", ".mts", ".cts", ".tsx", ".vue", ".svelte"}
}
