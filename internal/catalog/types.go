package catalog

// Grade is the chapter catalog for one class, loaded from YAML.
type Grade struct {
	Class    string    `yaml:"class"`
	Subjects []Subject `yaml:"subjects"`
}

// Subject groups units within a grade (e.g., Science).
type Subject struct {
	Name  string `yaml:"name"`
	Units []Unit `yaml:"units"`
}

// Unit groups chapters within a subject
// (e.g., "Chemical Substances - Nature and Behaviour (Chemistry)").
type Unit struct {
	Title    string    `yaml:"title"`
	Chapters []Chapter `yaml:"chapters"`
}

// Chapter is a single worksheet entry. An empty TableID means the question
// set has not been published yet.
type Chapter struct {
	Title   string `yaml:"title"`
	TableID string `yaml:"table_id"`
	Section string `yaml:"section"`
}

// Available reports whether the chapter links to a question set.
func (c Chapter) Available() bool {
	return c.TableID != ""
}

// Entry locates a chapter inside the catalog.
type Entry struct {
	Class   string
	Subject string
	Unit    string
	Chapter Chapter
}
