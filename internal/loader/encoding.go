package loader

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
)

const (
	suspiciousLineScan = 100
	suspiciousMax      = 10
	unknownEncoding    = "unknown"
)

// EncodingInfo describes the detected character encoding of a text input.
type EncodingInfo struct {
	Detected        string   `json:"detected"`
	Confidence      float64  `json:"confidence"`
	IsUTF8          bool     `json:"is_utf8"`
	SuspiciousBytes []string `json:"suspicious_chars"`
}

// DetectEncoding runs a confidence-scored charset detector over raw and, for
// non-UTF-8 input, lists undecodable bytes among the first 100 lines.
func DetectEncoding(raw []byte) EncodingInfo {
	info := EncodingInfo{Detected: unknownEncoding, SuspiciousBytes: []string{}}
	if best, err := chardet.NewTextDetector().DetectBest(raw); err == nil && best != nil && best.Charset != "" {
		info.Detected = best.Charset
		info.Confidence = float64(best.Confidence) / 100
	}
	norm := strings.ReplaceAll(strings.ToUpper(info.Detected), "-", "")
	info.IsUTF8 = norm == "UTF8" || norm == "ASCII" || utf8.Valid(raw)
	if info.IsUTF8 {
		return info
	}

	for i, line := range bytes.Split(raw, []byte("\n")) {
		if i >= suspiciousLineScan || len(info.SuspiciousBytes) >= suspiciousMax {
			break
		}
		if pos := invalidUTF8At(line); pos >= 0 {
			info.SuspiciousBytes = append(info.SuspiciousBytes,
				fmt.Sprintf("row %d: byte %q at position %d", i+1, line[pos:pos+1], pos))
		}
	}
	return info
}

func invalidUTF8At(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return -1
}

// lineDecoder is one strategy of the decode chain. ok is false when the
// strategy cannot represent the line.
type lineDecoder func(line []byte) (text string, ok bool)

func utf8Strategy(line []byte) (string, bool) {
	if !utf8.Valid(line) {
		return "", false
	}
	return string(line), true
}

func charsetStrategy(enc encoding.Encoding) lineDecoder {
	return func(line []byte) (string, bool) {
		out, err := enc.NewDecoder().Bytes(line)
		if err != nil || bytes.ContainsRune(out, utf8.RuneError) {
			return "", false
		}
		return string(out), true
	}
}

// replacementStrategy always succeeds, substituting U+FFFD for bytes
// Windows-1252 leaves undefined.
func replacementStrategy(line []byte) (string, bool) {
	out, err := charmap.Windows1252.NewDecoder().Bytes(line)
	if err != nil {
		return strings.ToValidUTF8(string(line), "\ufffd"), true
	}
	return string(out), true
}

// decodeChain is UTF-8, then the detected charset, then Latin-1, then a
// lossy Windows-1252 decode that cannot fail.
func decodeChain(detected string) []lineDecoder {
	chain := []lineDecoder{utf8Strategy}
	if detected != "" && detected != unknownEncoding {
		if enc, err := htmlindex.Get(detected); err == nil {
			chain = append(chain, charsetStrategy(enc))
		}
	}
	return append(chain, charsetStrategy(charmap.ISO8859_1), replacementStrategy)
}

// DecodeText decodes raw line by line through the decode chain and strips
// NUL bytes. It never fails.
func DecodeText(raw []byte, detected string) string {
	chain := decodeChain(detected)
	lines := bytes.Split(raw, []byte("\n"))
	out := make([]string, len(lines))
	for i, line := range lines {
		for _, decode := range chain {
			if text, ok := decode(line); ok {
				out[i] = strings.ReplaceAll(text, "\x00", "")
				break
			}
		}
	}
	return strings.Join(out, "\n")
}
