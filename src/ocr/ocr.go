package ocr

import (
	"bytes"
	"image"
	"image/png"
	"log"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Whitelist restricts recognition to the characters that ever appear in a
// screen label. Scores and symbols are never part of the classification
// signal, so digits and punctuation only add noise.
const Whitelist = "ABCDEFGHIJKLMNOPQRSTUVWXYZ "

// Recognize runs Tesseract over a normalized crop and returns the recognized
// text, trimmed. Every call acquires a fresh worker and releases it on every
// path; workers are never shared across calls.
//
// Any failure yields an empty string. The classifier treats missing text as
// "no match", so there is nothing useful to propagate.
func Recognize(crop image.Image) string {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage("eng"); err != nil {
		log.Printf("OCR: set language: %v", err)
		return ""
	}
	if err := client.SetWhitelist(Whitelist); err != nil {
		log.Printf("OCR: set whitelist: %v", err)
		return ""
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, crop); err != nil {
		log.Printf("OCR: encode crop: %v", err)
		return ""
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		log.Printf("OCR: set image: %v", err)
		return ""
	}

	text, err := client.Text()
	if err != nil {
		log.Printf("OCR: recognize: %v", err)
		return ""
	}
	return strings.TrimSpace(text)
}
