// Package layout describes the editable shape of each website section.
//
// A Layout tells the snapshot loader which content blocks feed the section header and
// which feed each repeating collection, how many items a collection shows at minimum,
// which media role its images carry and which heading levels apply by default.
package layout

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gosimple/slug"
	"github.com/hospitalcms/backend/internal/models"
	"github.com/hospitalcms/backend/internal/styletoken"
)

// Header describes the section header fed by the first text block
type Header struct {
	DefaultTitle   string
	DefaultContent string
	DefaultLevel   styletoken.Level
}

// Collection describes a repeating group of items, one content block per item
type Collection struct {
	Name      string
	Label     string
	BlockType models.BlockType
	MinItems  int
	// MediaRole is the media_type written for the item's image; empty when items carry no media.
	MediaRole          models.MediaType
	HeadingPrefix      string
	DefaultHeading     styletoken.Level
	SubheadingPrefix   string
	DefaultSubheading  styletoken.Level
	PlaceholderTitle   string
	PlaceholderContent string
}

// HasMedia reports whether items of the collection carry an image
func (c Collection) HasMedia() bool {
	return c.MediaRole != ""
}

// HasHeading reports whether items of the collection carry a heading level
func (c Collection) HasHeading() bool {
	return c.DefaultHeading != ""
}

// HasSubheading reports whether items of the collection carry a sub-heading level
func (c Collection) HasSubheading() bool {
	return c.DefaultSubheading != ""
}

// Layout is the editable shape of one section
type Layout struct {
	Name        string
	Section     string
	Title       string
	Header      *Header
	Collections []Collection
}

// Collection returns the collection with the given name
func (l Layout) Collection(name string) (Collection, bool) {
	for _, c := range l.Collections {
		if c.Name == name {
			return c, true
		}
	}
	return Collection{}, false
}

// CollectionFor returns the collection fed by blocks of the given type
func (l Layout) CollectionFor(blockType models.BlockType) (Collection, bool) {
	for _, c := range l.Collections {
		if c.BlockType == blockType {
			return c, true
		}
	}
	return Collection{}, false
}

// Validate checks that the layout is internally consistent
func (l Layout) Validate() error {
	if l.Name == "" || l.Section == "" {
		return fmt.Errorf("layout name and section are required")
	}
	seenNames := map[string]bool{}
	seenTypes := map[models.BlockType]bool{}
	for _, c := range l.Collections {
		if c.Name == "" {
			return fmt.Errorf("layout %s: collection name is required", l.Name)
		}
		if strings.ContainsAny(c.Name, ". ") {
			return fmt.Errorf("layout %s: collection name %q must not contain dots or spaces", l.Name, c.Name)
		}
		if seenNames[c.Name] {
			return fmt.Errorf("layout %s: duplicate collection %q", l.Name, c.Name)
		}
		if !c.BlockType.Valid() {
			return fmt.Errorf("layout %s: collection %q has invalid block type %q", l.Name, c.Name, c.BlockType)
		}
		if seenTypes[c.BlockType] {
			return fmt.Errorf("layout %s: block type %q feeds more than one collection", l.Name, c.BlockType)
		}
		if l.Header != nil && c.BlockType == models.BlockTypeText {
			return fmt.Errorf("layout %s: text blocks feed the header and cannot feed collection %q", l.Name, c.Name)
		}
		if c.HasMedia() && !c.MediaRole.Valid() {
			return fmt.Errorf("layout %s: collection %q has invalid media role %q", l.Name, c.Name, c.MediaRole)
		}
		seenNames[c.Name] = true
		seenTypes[c.BlockType] = true
	}
	return nil
}

// ErrUnknownLayout is returned when a layout name cannot be resolved
var ErrUnknownLayout = errors.New("unknown layout")

var registry = map[string]Layout{}

// Register adds a layout to the registry, replacing any layout with the same name
func Register(l Layout) error {
	if err := l.Validate(); err != nil {
		return err
	}
	registry[l.Name] = l
	return nil
}

func mustRegister(l Layout) {
	if err := Register(l); err != nil {
		panic(err)
	}
}

// SpecialityPrefix starts every layout reference and section name of a speciality page
const SpecialityPrefix = "speciality"

// Lookup returns a layout by name. Speciality pages are addressed as "speciality:<title>".
func Lookup(name string) (Layout, error) {
	if rest, ok := strings.CutPrefix(name, SpecialityPrefix+":"); ok {
		return Speciality(rest)
	}
	l, ok := registry[name]
	if !ok {
		return Layout{}, fmt.Errorf("%w %q", ErrUnknownLayout, name)
	}
	return l, nil
}

// Names returns the registered layout names, sorted
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Speciality returns the layout of one speciality page; its section name is derived from the title
func Speciality(title string) (Layout, error) {
	s := slug.Make(title)
	if s == "" {
		return Layout{}, fmt.Errorf("%w: speciality title %q produces an empty slug", ErrUnknownLayout, title)
	}
	l := registry[SpecialityPrefix]
	l.Name = SpecialityPrefix + ":" + s
	l.Section = SpecialityPrefix + "-" + s
	l.Title = title
	l.Collections = append([]Collection(nil), l.Collections...)
	return l, nil
}
