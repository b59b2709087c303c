// Package catalog is the attribute schema registry: the category list, the
// ordered questions asked per category and all user-facing copy. It is
// loaded once from YAML and passed to the components that need it.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/dmitrijs2005/lostfound/internal/server/models"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

var ErrUnknownCategory = errors.New("unknown category")

// Text is a string that may vary per flow. In YAML it is either a plain
// string or a mapping of flow name to string with an optional "default".
type Text struct {
	Default string
	PerFlow map[models.Flow]string
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *Text) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		t.Default = node.Value
		return nil
	case yaml.MappingNode:
		var m map[string]string
		if err := node.Decode(&m); err != nil {
			return err
		}
		t.PerFlow = make(map[models.Flow]string, len(m))
		for k, v := range m {
			if k == "default" {
				t.Default = v
				continue
			}
			t.PerFlow[models.Flow(k)] = v
		}
		return nil
	default:
		return fmt.Errorf("line %d: text must be a string or a mapping", node.Line)
	}
}

// For resolves the text for flow, falling back to the default.
func (t Text) For(flow models.Flow) string {
	if v, ok := t.PerFlow[flow]; ok && v != "" {
		return v
	}
	return t.Default
}

// Field is one question of a category schema.
type Field struct {
	Key      string `yaml:"key"`
	Label    string `yaml:"label"`
	Question Text   `yaml:"question"`
	Hint     Text   `yaml:"hint"`
	Required bool   `yaml:"required"`
	// SecretHint marks answers offered again as verification secrets.
	SecretHint bool `yaml:"secret_hint"`
}

// Category is a selectable item kind with its ordered schema.
type Category struct {
	ID     string  `yaml:"id"`
	Title  string  `yaml:"title"`
	Emoji  string  `yaml:"emoji"`
	Fields []Field `yaml:"fields"`
}

// Label is the title decorated for buttons and summaries.
func (c Category) Label() string {
	if c.Emoji == "" {
		return c.Title
	}
	return c.Emoji + " " + c.Title
}

// FlowCopy is the per-flow wording.
type FlowCopy struct {
	Emoji                 string   `yaml:"emoji"`
	Label                 string   `yaml:"label"`
	TitlePrefix           string   `yaml:"title_prefix"`
	Keywords              []string `yaml:"keywords"`
	CategoryPrompt        string   `yaml:"category_prompt"`
	AttributesPrompt      string   `yaml:"attributes_prompt"`
	PhotoPrompt           string   `yaml:"photo_prompt"`
	LocationPrompt        string   `yaml:"location_prompt"`
	SecretsPrompt         string   `yaml:"secrets_prompt"`
	SecretsLabel          string   `yaml:"secrets_label"`
	ConfirmPrompt         string   `yaml:"confirm_prompt"`
	SummaryTitle          string   `yaml:"summary_title"`
	MatchesHeading        string   `yaml:"matches_heading"`
	DescriptionDisclaimer string   `yaml:"description_disclaimer"`
}

// Catalog is the loaded registry.
type Catalog struct {
	SkipCommand    string                   `yaml:"skip_command"`
	CancelKeywords []string                 `yaml:"cancel_keywords"`
	DoneKeywords   []string                 `yaml:"done_keywords"`
	Flows          map[models.Flow]FlowCopy `yaml:"flows"`
	Categories     []Category               `yaml:"categories"`
	Messages       Messages                 `yaml:"messages"`
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Load(bytes.NewReader(defaultCatalog))
}

// LoadFile reads a catalog from path, or the built-in one if path is empty.
func LoadFile(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes and validates a catalog. Unknown keys are rejected.
func Load(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var c Catalog
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the structural rules the workflow relies on.
func (c *Catalog) Validate() error {
	var errs []error

	if c.SkipCommand == "" {
		errs = append(errs, errors.New("skip_command is empty"))
	}
	for _, f := range []models.Flow{models.FlowLost, models.FlowFound} {
		if _, ok := c.Flows[f]; !ok {
			errs = append(errs, fmt.Errorf("flow %q has no copy", f))
		}
	}
	if len(c.Categories) == 0 {
		errs = append(errs, errors.New("no categories"))
	}

	ids := map[string]bool{}
	for _, cat := range c.Categories {
		if cat.ID == "" {
			errs = append(errs, errors.New("category without id"))
			continue
		}
		if ids[cat.ID] {
			errs = append(errs, fmt.Errorf("duplicate category %q", cat.ID))
		}
		ids[cat.ID] = true

		keys := map[string]bool{}
		for _, f := range cat.Fields {
			switch {
			case f.Key == "":
				errs = append(errs, fmt.Errorf("category %q: field without key", cat.ID))
			case keys[f.Key]:
				errs = append(errs, fmt.Errorf("category %q: duplicate field %q", cat.ID, f.Key))
			case f.Question.For(models.FlowLost) == "" || f.Question.For(models.FlowFound) == "":
				errs = append(errs, fmt.Errorf("category %q: field %q has no question for every flow", cat.ID, f.Key))
			}
			keys[f.Key] = true
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid catalog: %w", errors.Join(errs...))
	}
	return nil
}

// Lookup returns the category with id.
func (c *Catalog) Lookup(id string) (Category, error) {
	for _, cat := range c.Categories {
		if cat.ID == id {
			return cat, nil
		}
	}
	return Category{}, fmt.Errorf("%w: %q", ErrUnknownCategory, id)
}

// Fields returns the ordered schema of a category, or nil if unknown.
func (c *Catalog) Fields(category string) []Field {
	cat, err := c.Lookup(category)
	if err != nil {
		return nil
	}
	return cat.Fields
}

// Field returns one field of a category schema.
func (c *Catalog) Field(category, key string) (Field, bool) {
	for _, f := range c.Fields(category) {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// NextUnanswered returns the first field in declared order whose key is not
// present in the draft. Skipped answers count as present.
func (c *Catalog) NextUnanswered(d models.Draft) (Field, bool) {
	for _, f := range c.Fields(d.Category) {
		if !d.HasAnswer(f.Key) {
			return f, true
		}
	}
	return Field{}, false
}

// CategoryTitle returns the category title, or the id itself if unknown.
func (c *Catalog) CategoryTitle(id string) string {
	if cat, err := c.Lookup(id); err == nil {
		return cat.Title
	}
	return id
}

// Flow returns the copy of flow.
func (c *Catalog) Flow(f models.Flow) FlowCopy {
	return c.Flows[f]
}

// IsSkip reports whether lower is the skip command.
func (c *Catalog) IsSkip(lower string) bool { return lower == c.SkipCommand }

// IsCancel reports whether lower is a cancel keyword.
func (c *Catalog) IsCancel(lower string) bool { return slices.Contains(c.CancelKeywords, lower) }

// IsDone reports whether lower finishes the photo step.
func (c *Catalog) IsDone(lower string) bool { return slices.Contains(c.DoneKeywords, lower) }

// MatchFlowKeyword returns the flow whose keyword equals lower or prefixes
// it followed by a space.
func (c *Catalog) MatchFlowKeyword(lower string) (models.Flow, bool) {
	for _, f := range []models.Flow{models.FlowLost, models.FlowFound} {
		for _, kw := range c.Flows[f].Keywords {
			if lower == kw || strings.HasPrefix(lower, kw+" ") {
				return f, true
			}
		}
	}
	return "", false
}

// AttributeLines renders "Label: value" for every asked field of the draft in
// schema order. Skipped or blank answers use Messages.Skipped.
func (c *Catalog) AttributeLines(d models.Draft) []string {
	var lines []string
	for _, f := range c.Fields(d.Category) {
		if !d.HasAnswer(f.Key) {
			continue
		}
		label := f.Label
		if label == "" {
			label = f.Key
		}
		v, ok := d.Answer(f.Key)
		v = strings.TrimSpace(v)
		if !ok || v == "" {
			v = c.Messages.Skipped
		}
		lines = append(lines, label+": "+v)
	}
	return lines
}

// PrimaryAnswer returns the first non-blank answer in schema order.
func (c *Catalog) PrimaryAnswer(d models.Draft) (string, bool) {
	for _, f := range c.Fields(d.Category) {
		if v, ok := d.Answer(f.Key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}
