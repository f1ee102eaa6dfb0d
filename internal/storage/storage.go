package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/parties247/party-fetcher/internal/logger"
	"github.com/parties247/party-fetcher/internal/record"
)

const (
	TokenFile   = "token.txt"
	CookiesFile = "cookies.json"

	// RetrievedAtLayout is ISO 8601 with microseconds and a numeric offset
	RetrievedAtLayout = "2006-01-02T15:04:05.000000-07:00"

	privateFileMode = 0600
)

// Storage handles files under one directory
type Storage struct {
	dataDir string
}

// RecordsFile is the on-disk form of one job's records
type RecordsFile struct {
	RetrievedAt string               `json:"retrieved_at"`
	Count       int                  `json:"count"`
	Events      []record.EventRecord `json:"events"`
}

// New creates a new Storage instance
func New(dataDir string) (*Storage, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	if dataDir == "" {
		return nil, fmt.Errorf("data directory is required")
	}

	return &Storage{
		dataDir: dataDir,
	}, nil
}

// Dir returns the root directory
func (s *Storage) Dir() string {
	return s.dataDir
}

// Path returns the path of name inside the root directory
func (s *Storage) Path(name string) string {
	return filepath.Join(s.dataDir, name)
}

// Ensure creates the root directory if it doesn't exist
func (s *Storage) Ensure() error {
	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	return nil
}

// Exists reports whether the root directory and every named file exist
func (s *Storage) Exists(names ...string) bool {
	if info, err := os.Stat(s.dataDir); err != nil || !info.IsDir() {
		return false
	}
	for _, name := range names {
		if _, err := os.Stat(s.Path(name)); err != nil {
			return false
		}
	}
	return true
}

// ReadToken returns the stored token without surrounding whitespace
func (s *Storage) ReadToken() (string, error) {
	data, err := os.ReadFile(s.Path(TokenFile))
	if err != nil {
		return "", fmt.Errorf("reading token: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// WriteToken stores token, readable by the owner only
func (s *Storage) WriteToken(token string) error {
	if err := s.Ensure(); err != nil {
		return err
	}
	return s.writePrivate(TokenFile, []byte(token))
}

// ReadCookies returns the stored cookie jar. Non-string values are stringified.
func (s *Storage) ReadCookies() (map[string]string, error) {
	data, err := os.ReadFile(s.Path(CookiesFile))
	if err != nil {
		return nil, fmt.Errorf("reading cookies: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing cookies: cookies file must contain a JSON object: %w", err)
	}

	cookies := make(map[string]string, len(raw))
	for name, value := range raw {
		if str, ok := value.(string); ok {
			cookies[name] = str
			continue
		}
		cookies[name] = fmt.Sprint(value)
	}
	return cookies, nil
}

// WriteCookies stores cookies as an indented JSON object, readable by the owner only
func (s *Storage) WriteCookies(cookies map[string]string) error {
	if cookies == nil {
		cookies = map[string]string{}
	}
	data, err := encodeJSON(cookies)
	if err != nil {
		return fmt.Errorf("encoding cookies: %w", err)
	}

	if err := s.Ensure(); err != nil {
		return err
	}
	return s.writePrivate(CookiesFile, data)
}

// RecordsPath returns the artifact path for a job
func (s *Storage) RecordsPath(job string) string {
	return s.Path(fmt.Sprintf("events_%s.json", job))
}

// SaveRecords writes a job's records with the time they were retrieved
func (s *Storage) SaveRecords(job string, records []record.EventRecord, retrievedAt time.Time) (string, error) {
	if records == nil {
		records = []record.EventRecord{}
	}

	data, err := encodeJSON(RecordsFile{
		RetrievedAt: retrievedAt.UTC().Format(RetrievedAtLayout),
		Count:       len(records),
		Events:      records,
	})
	if err != nil {
		return "", fmt.Errorf("encoding records: %w", err)
	}

	if err := s.Ensure(); err != nil {
		return "", err
	}

	path := s.RecordsPath(job)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing records: %w", err)
	}
	return path, nil
}

func (s *Storage) writePrivate(name string, data []byte) error {
	path := s.Path(name)
	if err := os.WriteFile(path, data, privateFileMode); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	// WriteFile keeps the mode of an existing file
	if err := os.Chmod(path, privateFileMode); err != nil {
		logger.Debug("Unable to set permissions", logger.Fields{"path": path, "error": err.Error()})
	}
	return nil
}

// encodeJSON indents with two spaces and leaves HTML characters unescaped
func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
