package knowledge

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const frontMatterDelimiter = "---"

// Meta holds the optional YAML front-matter of a knowledge fragment.
type Meta struct {
	Title string   `yaml:"title"`
	Tags  []string `yaml:"tags"`
}

// parseFragment splits a raw fragment into front-matter metadata and body.
// Fragments without a front-matter block are returned whole with zero Meta;
// a malformed front-matter block is an error so corrupt fragments can be
// skipped by the loader.
func parseFragment(raw []byte) (Meta, string, error) {
	s := string(raw)
	if !strings.HasPrefix(s, frontMatterDelimiter+"\n") {
		return Meta{}, s, nil
	}

	rest := s[len(frontMatterDelimiter):]
	idx := strings.Index(rest, "\n"+frontMatterDelimiter)
	if idx == -1 {
		return Meta{}, "", fmt.Errorf("knowledge: unclosed front-matter block")
	}

	yamlBlock := rest[:idx]
	bodyRaw := rest[idx+len("\n"+frontMatterDelimiter):]
	body := bodyRaw
	if strings.HasPrefix(bodyRaw, "\n\n") {
		body = bodyRaw[2:]
	} else if strings.HasPrefix(bodyRaw, "\n") {
		body = bodyRaw[1:]
	}

	var meta Meta
	if err := yaml.Unmarshal([]byte(yamlBlock), &meta); err != nil {
		return Meta{}, "", fmt.Errorf("knowledge: front-matter parse error: %w", err)
	}
	return meta, body, nil
}
