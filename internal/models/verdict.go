package models

// FormatKind is the classifier's verdict on a message's textual format.
type FormatKind string

const (
	FormatStructured   FormatKind = "STRUCTURED"
	FormatUnstructured FormatKind = "UNSTRUCTURED"
	FormatUnknown      FormatKind = "UNKNOWN"
)

// FormatVerdict is a transient classification result.
type FormatVerdict struct {
	Kind          FormatKind `json:"kind"`
	Confidence    float64    `json:"confidence"`
	SampleMatches []string   `json:"sampleMatches"`
}
