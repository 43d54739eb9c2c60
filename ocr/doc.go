// Package ocr defines abstraction layers for plugging OCR engines into the
// document processing pipeline. Both the neural detection+recognition
// pipeline and the Tesseract binding implement Engine, and the interfaces are
// intentionally small and transport-agnostic so engines can be backed by
// native libraries, in-process pipelines, or remote APIs without leaking
// provider-specific concerns into callers.
package ocr
