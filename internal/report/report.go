// Package report writes the JSON and TXT artifacts of a run.
package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"subrecon/internal/probe"
)

const (
	KindFull   = "subdominios_completos"
	KindActive = "subdominios_activos"
)

type Stats struct {
	Total  int `json:"total"`
	Active int `json:"activos"`
	Level2 int `json:"nivel2"`
	Level3 int `json:"nivel3"`
}

// Metadata is written verbatim into both JSON reports.
type Metadata struct {
	Timestamp string   `json:"timestamp"`
	Domain    string   `json:"dominio"`
	Tools     []string `json:"herramientas"`
	Stats     Stats    `json:"estadisticas"`
}

type Document struct {
	Metadata   Metadata                `json:"metadata"`
	Subdomains map[string]probe.Record `json:"subdominios"`
}

// Files lists the artifacts written by Write.
type Files struct {
	FullJSON   string
	ActiveJSON string
	FullTXT    string
	ActiveTXT  string
}

// Name returns <dir>/<kind>_<domain>_<timestamp>.<ext>.
func Name(dir, kind, domain, timestamp, ext string) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s_%s.%s", kind, domain, timestamp, ext))
}

// Write creates dir if needed and writes the four artifacts. Failures are
// returned as-is; files already written are left in place.
func Write(dir string, meta Metadata, res probe.Results) (Files, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Files{}, err
	}
	if meta.Tools == nil {
		meta.Tools = []string{}
	}
	files := Files{
		FullJSON:   Name(dir, KindFull, meta.Domain, meta.Timestamp, "json"),
		ActiveJSON: Name(dir, KindActive, meta.Domain, meta.Timestamp, "json"),
		FullTXT:    Name(dir, KindFull, meta.Domain, meta.Timestamp, "txt"),
		ActiveTXT:  Name(dir, KindActive, meta.Domain, meta.Timestamp, "txt"),
	}
	all, active := orEmpty(res.All), orEmpty(res.Active)
	if err := writeJSON(files.FullJSON, Document{Metadata: meta, Subdomains: all}); err != nil {
		return files, err
	}
	if err := writeJSON(files.ActiveJSON, Document{Metadata: meta, Subdomains: active}); err != nil {
		return files, err
	}
	if err := writeLines(files.FullTXT, sortedKeys(all)); err != nil {
		return files, err
	}
	if err := writeLines(files.ActiveTXT, sortedKeys(active)); err != nil {
		return files, err
	}
	return files, nil
}

func orEmpty(m map[string]probe.Record) map[string]probe.Record {
	if m == nil {
		return map[string]probe.Record{}
	}
	return m
}

func sortedKeys(m map[string]probe.Record) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func writeJSON(path string, doc Document) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

func writeLines(path string, lines []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	for _, l := range lines {
		if _, err := w.WriteString(l + "\n"); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Close()
}

// Read loads a JSON report written by Write.
func Read(path string) (*Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse report %s: %w", filepath.Base(path), err)
	}
	return &doc, nil
}
