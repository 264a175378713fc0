package domain

// InputKind distinguishes the three ways content enters the pipeline.
type InputKind int

const (
	// InputBytes is raw content passed directly by the caller.
	InputBytes InputKind = iota

	// InputPath is a filesystem path the reader loads itself.
	InputPath

	// InputText is inline text already decoded by the caller.
	InputText
)

// RawInput is a single unit of source material before reading.
// Exactly one of Data, Path or Text is meaningful, per Kind.
type RawInput struct {
	// Kind selects which payload field carries the content.
	Kind InputKind

	// Name is the caller-supplied document name. May be empty for
	// path inputs, in which case readers derive it from the path.
	Name string

	// Data holds the content for InputBytes.
	Data []byte

	// Path holds the filesystem path for InputPath.
	Path string

	// Text holds the inline content for InputText.
	Text string
}

// BytesInput builds a RawInput from raw bytes.
func BytesInput(name string, data []byte) RawInput {
	return RawInput{Kind: InputBytes, Name: name, Data: data}
}

// PathInput builds a RawInput from a filesystem path.
func PathInput(path string) RawInput {
	return RawInput{Kind: InputPath, Path: path}
}

// TextInput builds a RawInput from inline text.
func TextInput(name, text string) RawInput {
	return RawInput{Kind: InputText, Name: name, Text: text}
}

// DisplayName returns the best available name for error attribution.
func (in RawInput) DisplayName() string {
	if in.Name != "" {
		return in.Name
	}
	if in.Path != "" {
		return in.Path
	}
	return "(unnamed input)"
}
