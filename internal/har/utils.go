package har

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// ErrInvalidUTF8 is returned by DecodeBase64Text when decoded bytes are not UTF-8
var ErrInvalidUTF8 = errors.New("decoded content is not valid UTF-8")

// LoadHARFile loads and parses a HAR file from the given path.
// Gzip and zstd compressed captures are detected by their magic bytes.
func LoadHARFile(filePath string) (*HARFile, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	harFile, err := ReadHAR(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filePath, err)
	}
	return harFile, nil
}

// ReadHAR decodes a HAR document from r, decompressing it when needed
func ReadHAR(r io.Reader) (*HARFile, error) {
	rc, err := decompressingReader(r)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var harFile HARFile
	if err := json.NewDecoder(rc).Decode(&harFile); err != nil {
		return nil, err
	}
	return &harFile, nil
}

func decompressingReader(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(len(zstdMagic))

	switch {
	case bytes.HasPrefix(head, gzipMagic):
		return gzip.NewReader(br)
	case bytes.HasPrefix(head, zstdMagic):
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	default:
		return io.NopCloser(br), nil
	}
}

// DecodeBase64 decodes base64 content if encoded, falling back to the raw text
func DecodeBase64(text, encoding string) string {
	if encoding == "base64" && text != "" {
		if decoded, err := DecodeBase64Text(text); err == nil {
			return decoded
		}
	}
	return text
}

// DecodeBase64Text strictly decodes base64 text that must contain UTF-8
func DecodeBase64Text(text string) (string, error) {
	decoded, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(decoded) {
		return "", ErrInvalidUTF8
	}
	return string(decoded), nil
}

// HeaderValue returns the last value of the named header (case-insensitive)
func HeaderValue(headers []HARHeader, name string) string {
	var value string
	for _, header := range headers {
		if strings.EqualFold(header.Name, name) {
			value = header.Value
		}
	}
	return value
}

// GetRequestType determines the request type based on URL and headers
func GetRequestType(entry HAREntry) string {
	u, err := url.Parse(entry.Request.URL)
	if err != nil {
		return "other"
	}

	path := strings.ToLower(u.Path)

	if u.Scheme == "ws" || u.Scheme == "wss" {
		return "ws"
	}

	contentType := strings.ToLower(entry.Response.Content.MimeType)
	if contentType == "" {
		contentType = strings.ToLower(HeaderValue(entry.Response.Headers, "Content-Type"))
	}
	switch {
	case contentType == "":
	case strings.Contains(contentType, "text/html"):
		return "doc"
	case strings.Contains(contentType, "text/css"):
		return "css"
	case strings.Contains(contentType, "javascript") || strings.Contains(contentType, "ecmascript"):
		return "js"
	case strings.Contains(contentType, "image/"):
		return "img"
	case strings.Contains(contentType, "audio/") || strings.Contains(contentType, "video/"):
		return "media"
	case strings.Contains(contentType, "application/wasm"):
		return "wasm"
	case strings.Contains(contentType, "json") || strings.Contains(contentType, "xml"):
		return "fetch"
	}

	switch {
	case strings.HasSuffix(path, ".html") || strings.HasSuffix(path, ".htm"):
		return "doc"
	case strings.HasSuffix(path, ".css"):
		return "css"
	case strings.HasSuffix(path, ".js") || strings.HasSuffix(path, ".mjs"):
		return "js"
	case strings.HasSuffix(path, ".png") || strings.HasSuffix(path, ".jpg") || strings.HasSuffix(path, ".jpeg") ||
		strings.HasSuffix(path, ".gif") || strings.HasSuffix(path, ".svg") || strings.HasSuffix(path, ".webp") ||
		strings.HasSuffix(path, ".ico"):
		return "img"
	case strings.HasSuffix(path, ".wasm"):
		return "wasm"
	}

	if strings.EqualFold(HeaderValue(entry.Request.Headers, "X-Requested-With"), "XMLHttpRequest") {
		return "fetch"
	}
	if strings.Contains(path, "/api/") || strings.Contains(path, "/rest/") || strings.Contains(path, "/graphql") {
		return "fetch"
	}
	if path == "/" || path == "" {
		return "doc"
	}
	return "other"
}

// SaveHAR writes the given entries as a HAR document to outputPath
func SaveHAR(entries []HAREntry, creator HARCreator, outputPath string) error {
	doc := &HARFile{
		Log: HARLog{
			Version: "1.2",
			Creator: creator,
			Entries: entries,
		},
	}
	if doc.Log.Entries == nil {
		doc.Log.Entries = []HAREntry{}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(outputPath, data, 0644)
}
