package masterdata

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"

	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

// extractSingleEntry unzips the one file the vendor packs into each archive.
// An archive with no file entries fails the segment, not the whole sync.
func extractSingleEntry(archive []byte) ([]byte, error) {
	r, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open archive entry %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read archive entry %s: %w", f.Name, err)
		}
		return data, nil
	}

	return nil, fmt.Errorf("archive contains no file entries")
}

// decodeEUCKR converts the vendor's legacy regional encoding to UTF-8.
// Display names contain multi-byte Hangul sequences, so this must be a real
// decoder rather than a byte-as-char mapping.
func decodeEUCKR(data []byte) (string, error) {
	decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), korean.EUCKR.NewDecoder()))
	if err != nil {
		return "", fmt.Errorf("failed to decode EUC-KR text: %w", err)
	}
	return string(decoded), nil
}
