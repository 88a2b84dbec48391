// Package ocr defines the contract for OCR engines that recover text from pages
// without a usable text layer. Engines receive an encoded page raster and return
// word boxes in image pixel coordinates; mapping those back to PDF space is the
// caller's job.
package ocr
