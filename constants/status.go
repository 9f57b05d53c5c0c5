package constants

// ExtractionStatus is the terminal status of one processing invocation.
type ExtractionStatus string

// Stable values (these exact strings appear in the output contract and in DB rows).
const (
	StatusSuccess ExtractionStatus = "success"
	StatusError   ExtractionStatus = "error"
)

// Engine identifiers recorded on extraction results for observability and display.
const (
	EngineAzureVision         = "azure-vision"
	EngineTesseract           = "tesseract"
	EngineTesseractPreprocess = "tesseract+preprocess"

	// EngineNone marks results produced without any engine output, such as
	// unsupported inputs.
	EngineNone = "none"
)
