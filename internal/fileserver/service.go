// Package fileserver is the attachment side channel: it stores an uploaded
// payload under a generated name and hands back a relative URL. Messaging
// never depends on it; a message merely carries the returned URL as content.
package fileserver

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Executable/script extensions are rejected; everything else is allowed.
var blockedExt = map[string]bool{
	".exe": true, ".sh": true, ".js": true, ".bat": true, ".cmd": true,
	".php": true, ".py": true, ".rb": true,
}

// Service stores and serves uploaded files.
type Service struct {
	UploadDir     string
	MaxUploadSize int64
	URLPrefix     string
}

// New creates a service writing under uploadDir with the given size cap in
// bytes. urlPrefix is prepended to stored names in returned URLs.
func New(uploadDir string, maxUploadSize int64, urlPrefix string) *Service {
	return &Service{
		UploadDir:     uploadDir,
		MaxUploadSize: maxUploadSize,
		URLPrefix:     strings.TrimSuffix(urlPrefix, "/"),
	}
}

// Store writes the payload under a uuid name keeping the original extension
// and returns the relative URL to fetch it. The extension is normalized to
// lower case; blocked extensions are refused.
func (s *Service) Store(r io.Reader, ext string) (string, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if blockedExt[ext] {
		return "", fmt.Errorf("fileserver.Store: extension %q not allowed", ext)
	}

	// Renamed executables are refused by signature, not just extension.
	br := bufio.NewReader(r)
	if head, err := br.Peek(4); err == nil && isExecutable(head) {
		return "", fmt.Errorf("fileserver.Store: executable content not allowed")
	}

	if err := os.MkdirAll(s.UploadDir, 0o755); err != nil {
		return "", fmt.Errorf("fileserver.Store mkdir: %w", err)
	}

	name := uuid.New().String() + ext
	dst, err := os.Create(filepath.Join(s.UploadDir, name))
	if err != nil {
		return "", fmt.Errorf("fileserver.Store create: %w", err)
	}
	if _, err := io.Copy(dst, br); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", fmt.Errorf("fileserver.Store write: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("fileserver.Store close: %w", err)
	}
	return s.URLPrefix + "/" + name, nil
}

// isExecutable matches ELF and PE/MZ signatures.
func isExecutable(head []byte) bool {
	return bytes.HasPrefix(head, []byte("\x7fELF")) || bytes.HasPrefix(head, []byte("MZ"))
}

// Open returns the stored file for serving. The name is cleaned to its base
// so path traversal never leaves UploadDir.
func (s *Service) Open(name string) (*os.File, error) {
	name = filepath.Base(name)
	f, err := os.Open(filepath.Join(s.UploadDir, name))
	if err != nil {
		return nil, fmt.Errorf("fileserver.Open: %w", err)
	}
	return f, nil
}
