// Package catalog serves the class → subject → unit → chapter navigation
// used by the chapter list and quiz titles.
package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var defaults embed.FS

// Loader loads and caches the chapter catalog. Built-in grades are always
// loaded; files in an optional directory replace grades with the same class.
type Loader struct {
	rootDir string
	grades  map[string]Grade
	tables  map[string]Entry
	mu      sync.RWMutex
}

// NewLoader creates a catalog loader. rootDir may be empty to use only the
// built-in catalog.
func NewLoader(rootDir string) (*Loader, error) {
	l := &Loader{
		rootDir: rootDir,
		grades:  make(map[string]Grade),
		tables:  make(map[string]Entry),
	}

	if err := l.loadAll(); err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	slog.Info("catalog loaded", "grades", len(l.grades), "chapters", len(l.tables))
	return l, nil
}

// Grade returns the catalog for a class.
func (l *Loader) Grade(class string) (Grade, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	g, ok := l.grades[class]
	return g, ok
}

// Classes returns the loaded classes in ascending numeric order.
func (l *Loader) Classes() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	classes := make([]string, 0, len(l.grades))
	for c := range l.grades {
		classes = append(classes, c)
	}
	sort.Slice(classes, func(i, j int) bool {
		a, _ := strconv.Atoi(classes[i])
		b, _ := strconv.Atoi(classes[j])
		return a < b
	})
	return classes
}

// Subject returns one subject of a class, matched case-insensitively.
func (l *Loader) Subject(class, name string) (Subject, bool) {
	g, ok := l.Grade(class)
	if !ok {
		return Subject{}, false
	}
	for _, s := range g.Subjects {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return Subject{}, false
}

// Lookup finds a published chapter by its question set identifier.
func (l *Loader) Lookup(tableID string) (Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.tables[tableID]
	return e, ok
}

func (l *Loader) loadAll() error {
	err := fs.WalkDir(defaults, "data", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := defaults.ReadFile(path)
		if err != nil {
			return err
		}
		return l.loadGrade(path, data)
	})
	if err != nil {
		return err
	}

	if l.rootDir == "" {
		return nil
	}
	if _, err := os.Stat(l.rootDir); err != nil {
		return err
	}

	return filepath.Walk(l.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".yaml") && !strings.HasSuffix(path, ".yml") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return l.loadGrade(path, data)
	})
}

func (l *Loader) loadGrade(path string, data []byte) error {
	var g Grade
	if err := yaml.Unmarshal(data, &g); err != nil {
		slog.Warn("skipping invalid catalog YAML", "path", path, "error", err)
		return nil
	}

	if g.Class == "" {
		return nil // Not a grade file
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if old, ok := l.grades[g.Class]; ok {
		l.dropTables(old)
	}
	for si := range g.Subjects {
		s := &g.Subjects[si]
		for ui := range s.Units {
			u := &s.Units[ui]
			for ci := range u.Chapters {
				c := &u.Chapters[ci]
				if c.Section == "" {
					c.Section = s.Name
				}
				if c.Available() {
					l.tables[c.TableID] = Entry{Class: g.Class, Subject: s.Name, Unit: u.Title, Chapter: *c}
				}
			}
		}
	}
	l.grades[g.Class] = g

	return nil
}

func (l *Loader) dropTables(g Grade) {
	for _, s := range g.Subjects {
		for _, u := range s.Units {
			for _, c := range u.Chapters {
				delete(l.tables, c.TableID)
			}
		}
	}
}
