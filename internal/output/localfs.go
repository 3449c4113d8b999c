// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Implements: prd004-output-saver R4 (local persistence backend).
package output

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/petar-djukic/llm-node/pkg/types"
)

// LocalFile is a file persisted under a local directory.
type LocalFile struct {
	Path     string
	FileType types.FileType
}

// GenerateURL returns a file:// URL for the stored asset.
func (f *LocalFile) GenerateURL() string {
	return "file://" + f.Path
}

// Type reports the asset's file type.
func (f *LocalFile) Type() types.FileType {
	return f.FileType
}

// LocalFileSaver stores generated assets on the local filesystem,
// named by content hash. Saving is append-only; retries store a new
// copy rather than deduplicating.
type LocalFileSaver struct {
	Dir    string
	Client *http.Client
}

// SaveRemoteURL downloads a remote asset and stores it locally.
func (s *LocalFileSaver) SaveRemoteURL(url string, fileType types.FileType) (types.File, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading %s: status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	return s.store(data, extensionFor(resp.Header.Get("Content-Type")), fileType)
}

// SaveBinaryString stores inline binary content locally.
func (s *LocalFileSaver) SaveBinaryString(data []byte, mimeType string, fileType types.FileType) (types.File, error) {
	return s.store(data, extensionFor(mimeType), fileType)
}

func (s *LocalFileSaver) store(data []byte, ext string, fileType types.FileType) (types.File, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}

	sum := sha256.Sum256(data)
	path := filepath.Join(s.Dir, hex.EncodeToString(sum[:8])+ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", path, err)
	}
	return &LocalFile{Path: path, FileType: fileType}, nil
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}
