package catalog_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ready4exam/worksheet/internal/catalog"
)

func TestLoader_BuiltinCatalog(t *testing.T) {
	loader, err := catalog.NewLoader("")
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}

	g, ok := loader.Grade("10")
	if !ok {
		t.Fatal("Grade(10) not found")
	}
	if len(g.Subjects) != 3 {
		t.Errorf("len(Subjects) = %d, want 3", len(g.Subjects))
	}
}

func TestLoader_Subject(t *testing.T) {
	loader, err := catalog.NewLoader("")
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}

	s, ok := loader.Subject("10", "social science")
	if !ok {
		t.Fatal("Subject(10, social science) not found")
	}
	if s.Name != "Social Science" {
		t.Errorf("Name = %q", s.Name)
	}
	if s.Units[0].Chapters[0].Section != "Social Science" {
		t.Errorf("Section = %q, want defaulted to subject", s.Units[0].Chapters[0].Section)
	}

	if _, ok := loader.Subject("10", "Astrology"); ok {
		t.Error("Subject(Astrology) should not be found")
	}
	if _, ok := loader.Subject("3", "Science"); ok {
		t.Error("Subject for unknown class should not be found")
	}
}

func TestLoader_Lookup(t *testing.T) {
	loader, err := catalog.NewLoader("")
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}

	e, ok := loader.Lookup("science_acids_salts_10_quiz")
	if !ok {
		t.Fatal("Lookup() not found")
	}
	if e.Class != "10" || e.Subject != "Science" || e.Chapter.Title != "Acids, Bases and Salts" {
		t.Errorf("Lookup() = %+v", e)
	}

	if _, ok := loader.Lookup(""); ok {
		t.Error("Lookup(\"\") should not match coming-soon chapters")
	}
}

func TestChapter_Available(t *testing.T) {
	loader, err := catalog.NewLoader("")
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}

	s, _ := loader.Subject("10", "Science")
	var available, soon int
	for _, u := range s.Units {
		for _, c := range u.Chapters {
			if c.Available() {
				available++
			} else {
				soon++
			}
		}
	}
	if available == 0 || soon == 0 {
		t.Errorf("available = %d, coming soon = %d, want both non-zero", available, soon)
	}
}

func TestLoader_DirectoryOverride(t *testing.T) {
	dir := t.TempDir()

	os.WriteFile(filepath.Join(dir, "class11.yaml"), []byte(`
class: "11"
subjects:
  - name: Physics
    units:
      - title: Mechanics
        chapters:
          - title: Laws of Motion
            table_id: physics_laws_of_motion_11_quiz
`), 0o644)
	os.WriteFile(filepath.Join(dir, "class10.yaml"), []byte(`
class: "10"
subjects:
  - name: Science
    units:
      - title: Chemistry
        chapters:
          - title: Acids
            table_id: science_acids_10_quiz
`), 0o644)
	os.WriteFile(filepath.Join(dir, "notes.md"), []byte("# ignored"), 0o644)

	loader, err := catalog.NewLoader(dir)
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}

	classes := loader.Classes()
	if len(classes) != 2 || classes[0] != "10" || classes[1] != "11" {
		t.Errorf("Classes() = %v, want [10 11]", classes)
	}
	if _, ok := loader.Lookup("physics_laws_of_motion_11_quiz"); !ok {
		t.Error("override grade chapter not found")
	}
	if _, ok := loader.Lookup("science_acids_salts_10_quiz"); ok {
		t.Error("replaced grade should drop its old chapters")
	}
}

func TestLoader_SkipsInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("class: [unterminated"), 0o644)
	os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("name: not a grade"), 0o644)

	loader, err := catalog.NewLoader(dir)
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}
	if classes := loader.Classes(); len(classes) != 1 {
		t.Errorf("Classes() = %v, want only the built-in grade", classes)
	}
}

func TestLoader_MissingDir(t *testing.T) {
	if _, err := catalog.NewLoader(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("NewLoader() should fail for a missing directory")
	}
}
