package constants

// Snippet extraction constants
const (
	// FileSizeThreshold is the exclusive upper bound (in characters) for
	// showing a file whole instead of by individual components
	FileSizeThreshold = 5000
)

// Hint cache constants
const (
	// HighConfidenceSimilarity is the cosine similarity above which a cached
	// hint is reused verbatim without re-exploration
	HighConfidenceSimilarity = 0.92

	// VectorSearchLimit is the number of nearest neighbors fetched per lookup
	VectorSearchLimit = 5

	// DefaultPersona is assumed for hints persisted without a persona tag
	DefaultPersona = "PM"

	// NoMatch is the sentinel returned by the relevance filter when no
	// candidate fits the original prompt
	NoMatch = "NO_MATCH"

	// ExtractionMaxChars bounds the answer text handed to the reference
	// extractor
	ExtractionMaxChars = 8000
)

// Exploration constants
const (
	// DefaultExploreMaxSteps bounds the tool-calling loop; the model is
	// expected to call final_answer well before this
	DefaultExploreMaxSteps = 12

	// DefaultExploreTimeoutSeconds is the wall-clock bound on one exploration
	DefaultExploreTimeoutSeconds = 180
)

// Job store constants
const (
	// JobStoreCapacity bounds the in-process job status store; the oldest
	// entry is evicted when full
	JobStoreCapacity = 256
)
