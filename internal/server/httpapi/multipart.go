package httpapi

import (
	"bytes"
	"errors"
	"io"
	"strings"
)

// Sentinel errors for the ingestion pipeline; the handler maps them to the
// HTTP codes of the upload contract.
var (
	errNotMultipart    = errors.New("content type is not multipart/form-data")
	errMissingBoundary = errors.New("missing multipart boundary")
	errBodyTooLarge    = errors.New("body exceeds size limit")
)

// readBodyLimit streams the request body chunk by chunk, counting cumulative
// bytes. The moment the count crosses limit it stops reading and returns
// errBodyTooLarge, so an oversized upload is never buffered to completion.
func readBodyLimit(r io.Reader, limit int64) ([]byte, error) {
	var buf bytes.Buffer
	chunk := make([]byte, 64*1024)
	var total int64

	for {
		n, err := r.Read(chunk)
		if n > 0 {
			total += int64(n)
			if total > limit {
				return nil, errBodyTooLarge
			}
			buf.Write(chunk[:n])
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return buf.Bytes(), nil
			}
			return nil, err
		}
	}
}

// boundaryFromContentType extracts the boundary token from a
// multipart/form-data content type header.
func boundaryFromContentType(contentType string) (string, error) {
	segments := strings.Split(contentType, ";")
	mediaType := strings.ToLower(strings.TrimSpace(segments[0]))
	if mediaType != "multipart/form-data" {
		return "", errNotMultipart
	}

	for _, seg := range segments[1:] {
		seg = strings.TrimSpace(seg)
		if rest, ok := strings.CutPrefix(seg, "boundary="); ok {
			boundary := strings.Trim(rest, `"`)
			if boundary != "" {
				return boundary, nil
			}
		}
	}
	return "", errMissingBoundary
}

// formPart is one parsed multipart section. Exactly one of value/data is
// set: a part carrying a filename or content type is binary data, anything
// else is a plain string field.
type formPart struct {
	name        string
	filename    string
	contentType string
	value       string
	data        []byte
	isData      bool
}

// splitParts scans the buffered body for boundary markers and parses each
// section into a formPart. Parts without a name and the closing marker are
// skipped.
func splitParts(body []byte, boundary string) []formPart {
	delimiter := []byte("--" + boundary)
	segments := bytes.Split(body, delimiter)

	var parts []formPart

	// segments[0] is the preamble before the first boundary
	for _, seg := range segments[1:] {
		if bytes.HasPrefix(seg, []byte("--")) {
			// closing marker
			break
		}
		seg = bytes.TrimPrefix(seg, []byte("\r\n"))

		headerEnd := bytes.Index(seg, []byte("\r\n\r\n"))
		if headerEnd < 0 {
			continue
		}
		headerBlock := string(seg[:headerEnd])
		content := bytes.TrimSuffix(seg[headerEnd+4:], []byte("\r\n"))

		var p formPart
		for _, line := range strings.Split(headerBlock, "\r\n") {
			lower := strings.ToLower(line)
			switch {
			case strings.HasPrefix(lower, "content-disposition:"):
				p.name = headerParam(line, "name")
				p.filename = headerParam(line, "filename")
			case strings.HasPrefix(lower, "content-type:"):
				p.contentType = strings.TrimSpace(line[len("content-type:"):])
			}
		}
		if p.name == "" {
			continue
		}

		if p.filename != "" || p.contentType != "" {
			p.isData = true
			p.data = append([]byte(nil), content...)
		} else {
			p.value = string(content)
		}
		parts = append(parts, p)
	}

	return parts
}

// headerParam extracts a quoted or bare parameter value (e.g. name="file")
// from a header line.
func headerParam(header, key string) string {
	marker := key + "="
	idx := strings.Index(header, marker)
	if idx < 0 {
		return ""
	}
	rest := header[idx+len(marker):]
	if strings.HasPrefix(rest, `"`) {
		rest = rest[1:]
		if end := strings.Index(rest, `"`); end >= 0 {
			return rest[:end]
		}
		return rest
	}
	if end := strings.IndexAny(rest, "; "); end >= 0 {
		return rest[:end]
	}
	return rest
}
