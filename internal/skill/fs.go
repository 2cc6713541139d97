package skill

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DocumentName is the main file of every skill directory.
const DocumentName = "SKILL.md"

// Dir returns the on-disk directory for a skill under the sync root:
// <root>/{commands,skills,agents}/<name>/.
func Dir(root string, key Key) string {
	return filepath.Join(root, key.Type.Dir(), key.Name)
}

// Load reads one skill from disk: SKILL.md plus every other regular file in
// the directory as a supporting file. Dotfiles are ignored.
func Load(root string, key Key) (*Skill, error) {
	dir := Dir(root, key)
	doc, err := os.ReadFile(filepath.Join(dir, DocumentName))
	if err != nil {
		return nil, err
	}
	s, err := ParseDocument(string(doc), key)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || name == DocumentName || strings.HasPrefix(name, ".") {
			continue
		}
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		s.Files = append(s.Files, SupportingFile{Name: name, Content: content})
	}
	sort.Slice(s.Files, func(i, j int) bool { return s.Files[i].Name < s.Files[j].Name })
	return s, nil
}

// LoadAll walks the three type directories and loads every skill found.
// Missing type directories are fine; a brand-new root has none.
func LoadAll(root string) ([]*Skill, error) {
	var out []*Skill
	for _, t := range Types {
		base := filepath.Join(root, t.Dir())
		entries, err := os.ReadDir(base)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
				continue
			}
			s, err := Load(root, Key{Type: t, Name: e.Name()})
			if err != nil {
				return nil, fmt.Errorf("load %s:%s: %w", t, e.Name(), err)
			}
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.String() < out[j].Key.String() })
	return out, nil
}

// Save writes the skill's document and supporting files, creating the
// directory as needed. Existing supporting files not present in the skill
// are left alone; sync overwrites at whole-skill granularity but never
// deletes local-only files.
func Save(root string, s *Skill) error {
	if !ValidName(s.Key.Name) {
		return fmt.Errorf("%w: %q", ErrBadName, s.Key.Name)
	}
	dir := Dir(root, s.Key)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, DocumentName), []byte(RenderDocument(s)), 0o644); err != nil {
		return err
	}
	for _, f := range s.Files {
		if filepath.Base(f.Name) != f.Name || strings.HasPrefix(f.Name, ".") {
			return fmt.Errorf("skill %s: unsafe supporting file name %q", s.Key, f.Name)
		}
		if err := os.WriteFile(filepath.Join(dir, f.Name), f.Content, 0o644); err != nil {
			return err
		}
	}
	return nil
}
