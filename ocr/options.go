package ocr

import "strconv"

// InputOption mutates an Input built by InputFromImage.
type InputOption func(*Input)

func WithLanguages(langs ...string) InputOption {
	return func(in *Input) { in.Languages = append([]string(nil), langs...) }
}

func WithDPI(dpi int) InputOption {
	return func(in *Input) { in.DPI = dpi }
}

// WithMetadata copies metadata onto the input.
func WithMetadata(metadata map[string]string) InputOption {
	return func(in *Input) {
		if len(metadata) == 0 {
			in.Metadata = nil
			return
		}
		in.Metadata = make(map[string]string, len(metadata))
		for k, v := range metadata {
			in.Metadata[k] = v
		}
	}
}

// WithTesseractPSM sets Tesseract's page segmentation mode.
func WithTesseractPSM(mode int) InputOption {
	return func(in *Input) { setMeta(in, "tessedit_pageseg_mode", strconv.Itoa(mode)) }
}

// WithTesseractWhitelist restricts recognition to chars.
func WithTesseractWhitelist(chars string) InputOption {
	return func(in *Input) { setMeta(in, "tessedit_char_whitelist", chars) }
}

func setMeta(in *Input, k, v string) {
	if in.Metadata == nil {
		in.Metadata = make(map[string]string)
	}
	in.Metadata[k] = v
}
