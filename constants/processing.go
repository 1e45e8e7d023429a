package constants

// Extraction method tags recorded in processing_metadata.method.
const (
	MethodPDFTextLayer   = "PDF Text Layer"
	MethodGeminiVision   = "Gemini Vision"
	MethodTextExtraction = "Text Extraction"
	MethodTextRetry      = "text_extraction_retry"
)

// Keys used inside the processing_metadata JSON bag. The bag is additive:
// stages merge their keys, they never replace the whole object.
const (
	MetaMethod       = "method"
	MetaFormat       = "format"
	MetaWordCount    = "word_count"
	MetaPageCount    = "page_count"
	MetaProcessedAt  = "processed_at"
	MetaRetryCount   = "retry_count"
	MetaStorageKey   = "storage_key"
	MetaFailedMethod = "failed_method"
	MetaImageWidth   = "image_width"
	MetaImageHeight  = "image_height"
	MetaImageBytes   = "image_bytes"
	MetaConvertedKey = "converted_key"
)
