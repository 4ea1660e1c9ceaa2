// Package structure loads and validates the declarative report-type specs:
// the ordered category -> subcategory -> item trees plus sheet patterns,
// markers, and output column order each extractor consumes.
//
// Specs are external YAML data. They are validated once at load time and
// read-only thereafter; a malformed spec is a run-level configuration error,
// never a per-file one.
package structure

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"

	kerrors "kitacli/internal/errors"
	"kitacli/internal/workbook"
)

// Subcategory is one expected block of item rows under a category.
type Subcategory struct {
	Name        string
	Description string
	Items       []string
}

// Category is one report section, e.g. "I. PERSONALAUSGABEN".
type Category struct {
	Name          string
	Subcategories []Subcategory
}

// ColumnSpec describes one output column of a flat-table extractor
// (asset register style): the header text to find, the output name, and the
// coercion type.
type ColumnSpec struct {
	OriginalName string `yaml:"original_name" validate:"required"`
	Name         string `yaml:"name" validate:"required"`
	Type         string `yaml:"type" validate:"oneof=string float date bool percent"`
	Format       string `yaml:"format"`
}

// Spec is the full declarative configuration for one report type.
// Categories preserve declaration order; so do subcategories and items.
type Spec struct {
	SheetPatterns   []string     `yaml:"sheet_patterns"`
	ContentPatterns []string     `yaml:"content_patterns"`
	SectionMarker   string       `yaml:"section_marker"`
	EndMarkers      []string     `yaml:"end_markers"`
	HeaderMarker    string       `yaml:"header_marker"`
	ExcludePatterns []string     `yaml:"exclude_patterns"`
	OutputColumns   []string     `yaml:"output_columns"`
	Years           []string     `yaml:"years"`
	Months          []string     `yaml:"months"`
	TargetGroups    []string     `yaml:"target_groups"`
	Questions       []string     `yaml:"questions"`
	Columns         []ColumnSpec `yaml:"columns"`
	Headers         map[string]string `yaml:"headers"`
	ValidTypes      map[string][]string `yaml:"valid_types"`

	Categories []Category `yaml:"-"`
}

// rawSpec carries the yaml fields that decode directly; the structure tree is
// pulled out of a MapSlice afterwards so declaration order survives.
type rawSpec struct {
	SheetPatterns   []string            `yaml:"sheet_patterns"`
	ContentPatterns []string            `yaml:"content_patterns"`
	SectionMarker   string              `yaml:"section_marker"`
	EndMarkers      []string            `yaml:"end_markers"`
	HeaderMarker    string              `yaml:"header_marker"`
	ExcludePatterns []string            `yaml:"exclude_patterns"`
	OutputColumns   []string            `yaml:"output_columns"`
	Years           []string            `yaml:"years"`
	Months          []string            `yaml:"months"`
	TargetGroups    []string            `yaml:"target_groups"`
	Questions       []string            `yaml:"questions"`
	Columns         []ColumnSpec        `yaml:"columns"`
	Headers         map[string]string   `yaml:"headers"`
	ValidTypes      map[string][]string `yaml:"valid_types"`
	Structure       yaml.MapSlice       `yaml:"structure"`
}

var validate = validator.New()

// Load reads and validates a spec file.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, kerrors.NewConfiguration(fmt.Sprintf("cannot read structure spec %s", path), err)
	}
	return Parse(data)
}

// Parse decodes and validates spec YAML.
func Parse(data []byte) (*Spec, error) {
	var raw rawSpec
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, kerrors.NewConfiguration("structure spec is not valid YAML", err)
	}

	spec := &Spec{
		SheetPatterns:   raw.SheetPatterns,
		ContentPatterns: raw.ContentPatterns,
		SectionMarker:   raw.SectionMarker,
		EndMarkers:      raw.EndMarkers,
		HeaderMarker:    raw.HeaderMarker,
		ExcludePatterns: raw.ExcludePatterns,
		OutputColumns:   raw.OutputColumns,
		Years:           raw.Years,
		Months:          raw.Months,
		TargetGroups:    raw.TargetGroups,
		Questions:       raw.Questions,
		Columns:         raw.Columns,
		Headers:         raw.Headers,
		ValidTypes:      raw.ValidTypes,
	}

	categories, err := decodeCategories(raw.Structure)
	if err != nil {
		return nil, err
	}
	spec.Categories = categories

	for i, col := range spec.Columns {
		if err := validate.Struct(col); err != nil {
			return nil, kerrors.NewConfiguration(fmt.Sprintf("invalid column spec at index %d", i), err)
		}
	}
	return spec, nil
}

// decodeCategories converts the nested ordered mapping
// (category -> subcategory -> {description, items}) into typed slices.
// Duplicate item labels within one category are disallowed; on conflict the
// first occurrence wins and the duplicate is logged.
func decodeCategories(ms yaml.MapSlice) ([]Category, error) {
	var categories []Category
	for _, catEntry := range ms {
		catName, ok := catEntry.Key.(string)
		if !ok {
			return nil, kerrors.NewConfiguration("structure category keys must be strings", nil)
		}
		subs, ok := catEntry.Value.(yaml.MapSlice)
		if !ok {
			return nil, kerrors.NewConfiguration(
				fmt.Sprintf("category %q must map subcategories to {description, items}", catName), nil)
		}

		cat := Category{Name: catName}
		seen := make(map[string]string) // normalized item -> owning subcategory
		for _, subEntry := range subs {
			subName, ok := subEntry.Key.(string)
			if !ok {
				return nil, kerrors.NewConfiguration(
					fmt.Sprintf("subcategory keys under %q must be strings", catName), nil)
			}
			sub, err := decodeSubcategory(catName, subName, subEntry.Value)
			if err != nil {
				return nil, err
			}

			kept := sub.Items[:0]
			for _, item := range sub.Items {
				norm := workbook.NormalizeUpper(item)
				if owner, dup := seen[norm]; dup {
					slog.Warn("duplicate item label in structure spec, first occurrence wins",
						slog.String("category", catName),
						slog.String("item", item),
						slog.String("kept_in", owner),
						slog.String("dropped_from", subName))
					continue
				}
				seen[norm] = subName
				kept = append(kept, item)
			}
			sub.Items = kept
			cat.Subcategories = append(cat.Subcategories, sub)
		}
		if len(cat.Subcategories) == 0 {
			return nil, kerrors.NewConfiguration(
				fmt.Sprintf("category %q declares no subcategories", catName), nil)
		}
		categories = append(categories, cat)
	}
	return categories, nil
}

func decodeSubcategory(catName, subName string, value interface{}) (Subcategory, error) {
	sub := Subcategory{Name: subName}
	body, ok := value.(yaml.MapSlice)
	if !ok {
		return sub, kerrors.NewConfiguration(
			fmt.Sprintf("subcategory %q under %q must be a mapping with description and items", subName, catName), nil)
	}
	for _, field := range body {
		key, _ := field.Key.(string)
		switch key {
		case "description":
			if s, ok := field.Value.(string); ok {
				sub.Description = s
			}
		case "items":
			list, ok := field.Value.([]interface{})
			if !ok {
				return sub, kerrors.NewConfiguration(
					fmt.Sprintf("items of %q under %q must be a list", subName, catName), nil)
			}
			for _, it := range list {
				s, ok := it.(string)
				if !ok {
					return sub, kerrors.NewConfiguration(
						fmt.Sprintf("items of %q under %q must be strings", subName, catName), nil)
				}
				sub.Items = append(sub.Items, s)
			}
		}
	}
	if len(sub.Items) == 0 {
		return sub, kerrors.NewConfiguration(
			fmt.Sprintf("subcategory %q under %q declares no items", subName, catName), nil)
	}
	return sub, nil
}

// Category returns the category with the given name, or nil.
func (s *Spec) Category(name string) *Category {
	for i := range s.Categories {
		if s.Categories[i].Name == name {
			return &s.Categories[i]
		}
	}
	return nil
}

// RequireCategories fails fast when the spec does not declare the categories
// an extractor depends on.
func (s *Spec) RequireCategories(names ...string) error {
	for _, name := range names {
		if s.Category(name) == nil {
			return kerrors.NewConfiguration(
				fmt.Sprintf("structure spec is missing required category %q", name), nil)
		}
	}
	return nil
}

// RequireFields fails fast on missing scalar/list fields, keyed by the yaml
// field names so the error points at the config, not the code.
func (s *Spec) RequireFields(fields ...string) error {
	for _, f := range fields {
		missing := false
		switch f {
		case "sheet_patterns":
			missing = len(s.SheetPatterns) == 0
		case "content_patterns":
			missing = len(s.ContentPatterns) == 0
		case "section_marker":
			missing = s.SectionMarker == ""
		case "header_marker":
			missing = s.HeaderMarker == ""
		case "output_columns":
			missing = len(s.OutputColumns) == 0
		case "years":
			missing = len(s.Years) == 0
		case "months":
			missing = len(s.Months) == 0
		case "target_groups":
			missing = len(s.TargetGroups) == 0
		case "questions":
			missing = len(s.Questions) == 0
		case "columns":
			missing = len(s.Columns) == 0
		case "headers":
			missing = len(s.Headers) == 0
		case "structure":
			missing = len(s.Categories) == 0
		default:
			return kerrors.NewConfiguration(fmt.Sprintf("unknown required field %q", f), nil)
		}
		if missing {
			return kerrors.NewConfiguration(fmt.Sprintf("structure spec is missing required field %q", f), nil)
		}
	}
	return nil
}
