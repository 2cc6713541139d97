package skill

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const fmDelim = "---"

// ParseDocument splits a SKILL.md document into frontmatter fields and body.
// Known keys (name, description) land in typed fields; everything else goes
// into the Meta sidecar map so unrecognized frontmatter round-trips without
// a schema change. A document without frontmatter is all body.
func ParseDocument(doc string, key Key) (*Skill, error) {
	s := &Skill{Key: key}
	rest, ok := strings.CutPrefix(doc, fmDelim+"\n")
	if !ok {
		s.Body = doc
		return s, nil
	}
	head, body, ok := strings.Cut(rest, "\n"+fmDelim+"\n")
	if !ok {
		// Unterminated frontmatter fence; treat the whole thing as body.
		s.Body = doc
		return s, nil
	}

	fields := map[string]string{}
	if err := yaml.Unmarshal([]byte(head), &fields); err != nil {
		return nil, fmt.Errorf("skill %s: frontmatter: %w", key, err)
	}
	for k, v := range fields {
		switch k {
		case "name":
			if v != "" && v != key.Name {
				return nil, fmt.Errorf("skill %s: frontmatter name %q disagrees with directory", key, v)
			}
		case "description":
			s.Description = v
		default:
			if s.Meta == nil {
				s.Meta = map[string]string{}
			}
			s.Meta[k] = v
		}
	}
	s.Body = body
	return s, nil
}

// RenderDocument is the inverse of ParseDocument: frontmatter with name and
// description first, then the sidecar keys sorted, then the body. Output is
// deterministic for a given skill.
func RenderDocument(s *Skill) string {
	var b strings.Builder
	b.WriteString(fmDelim + "\n")
	writeYAMLField(&b, "name", s.Key.Name)
	if s.Description != "" {
		writeYAMLField(&b, "description", s.Description)
	}
	extra := make([]string, 0, len(s.Meta))
	for k := range s.Meta {
		extra = append(extra, k)
	}
	sort.Strings(extra)
	for _, k := range extra {
		writeYAMLField(&b, k, s.Meta[k])
	}
	b.WriteString(fmDelim + "\n")
	b.WriteString(s.Body)
	return b.String()
}

// writeYAMLField marshals one key so values with colons, quotes or leading
// symbols come out correctly quoted.
func writeYAMLField(b *strings.Builder, k, v string) {
	out, err := yaml.Marshal(map[string]string{k: v})
	if err != nil {
		// A map[string]string cannot fail to marshal; fall back anyway.
		fmt.Fprintf(b, "%s: %q\n", k, v)
		return
	}
	b.Write(out)
}
