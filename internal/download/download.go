// Package download streams resolved media sources to local files.
// Output names are sanitized and validated against directory traversal.
package download

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"

	"malpha/internal/httputil"
	"malpha/internal/media"
)

// sniffLen is how many leading bytes filetype needs to match every
// signature it knows.
const sniffLen = 262

// fallbackExt is used when neither the name hint, the URL nor the content
// identify the file type.
const fallbackExt = "bin"

// Download fetches src to a file in outputDir and returns the file path.
// index is the position of src in d.Sources and disambiguates multi-item
// posts. A partial file is removed on failure.
func Download(ctx context.Context, client httputil.Doer, d *media.Descriptor, index int, outputDir string) (string, error) {
	if index < 0 || index >= len(d.Sources) {
		return "", fmt.Errorf("source %d out of range (have %d)", index+1, len(d.Sources))
	}
	src := d.Sources[index]

	absDir, err := filepath.Abs(outputDir)
	if err != nil {
		return "", fmt.Errorf("resolving output directory: %w", err)
	}
	if err := os.MkdirAll(absDir, 0755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	resp, err := httputil.Get(ctx, client, src.URI)
	if err != nil {
		return "", fmt.Errorf("requesting %s: %w", src.Label, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &httputil.StatusError{Code: resp.StatusCode}
	}

	body := bufio.NewReaderSize(resp.Body, sniffLen)
	head, err := body.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return "", fmt.Errorf("reading %s: %w", src.Label, err)
	}

	ext := Extension(d, src, head)
	outputPath, err := httputil.SafeDownloadPath(absDir, BaseName(d, index)+"."+ext)
	if err != nil {
		return "", fmt.Errorf("invalid output path: %w", err)
	}

	tmp, err := os.CreateTemp(absDir, ".malpha-*.part")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("writing %s: %w", filepath.Base(outputPath), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, outputPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("renaming download: %w", err)
	}

	return outputPath, nil
}

// BaseName is the output name without extension: the upstream file name hint
// when present, else "<platform>_<id>". Multi-source posts get a 1-based
// suffix.
func BaseName(d *media.Descriptor, index int) string {
	base := strings.TrimSuffix(d.Filename, filepath.Ext(d.Filename))
	if base == "" {
		platform := d.Platform
		if platform == "" {
			platform = "media"
		}
		base = platform + "_" + d.ID
	}
	if len(d.Sources) > 1 {
		base = fmt.Sprintf("%s_%d", base, index+1)
	}
	return httputil.SanitizeFilename(base)
}

// Extension picks the file extension for src, preferring the name hint, then
// the URL path, then the sniffed content.
func Extension(d *media.Descriptor, src media.Source, head []byte) string {
	if len(d.Sources) <= 1 || d.Sources[0].URI == src.URI {
		if ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(d.Filename), ".")); knownExt(ext) {
			return ext
		}
	}
	if ext := httputil.FileExt(src.URI); knownExt(ext) {
		return ext
	}
	if kind, err := filetype.Match(head); err == nil && kind != filetype.Unknown {
		return kind.Extension
	}
	return fallbackExt
}

func knownExt(ext string) bool {
	return ext != "" && len(ext) <= 5 && filetype.IsSupported(ext)
}
