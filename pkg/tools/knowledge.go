package tools

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed knowledge.yaml
var defaultKnowledge []byte

// Article is a knowledge base entry.
type Article struct {
	ID      string   `yaml:"id" json:"id"`
	Title   string   `yaml:"title" json:"title"`
	Content string   `yaml:"content" json:"content"`
	Tags    []string `yaml:"tags" json:"tags"`
}

// KnowledgeFile represents the structure of a knowledge base file.
type KnowledgeFile struct {
	Articles []Article `yaml:"articles" json:"articles"`
}

// KnowledgeBase is an immutable set of articles.
type KnowledgeBase struct {
	articles []Article
}

// NewKnowledgeBase creates a knowledge base, skipping articles without an id.
func NewKnowledgeBase(articles []Article) *KnowledgeBase {
	kb := &KnowledgeBase{}
	for _, a := range articles {
		if a.ID == "" {
			continue
		}
		kb.articles = append(kb.articles, a)
	}
	return kb
}

// DefaultKnowledge returns the built-in support articles.
func DefaultKnowledge() *KnowledgeBase {
	var f KnowledgeFile
	if err := yaml.Unmarshal(defaultKnowledge, &f); err != nil {
		panic(fmt.Sprintf("embedded knowledge base is invalid: %v", err))
	}
	return NewKnowledgeBase(f.Articles)
}

// LoadKnowledge reads a knowledge base file (YAML or JSON).
// An empty path yields the built-in articles.
func LoadKnowledge(path string) (*KnowledgeBase, error) {
	if path == "" {
		return DefaultKnowledge(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge base: %w", err)
	}

	var f KnowledgeFile
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse knowledge base: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse knowledge base: %w", err)
		}
	}
	return NewKnowledgeBase(f.Articles), nil
}

// Articles returns a copy of the articles.
func (kb *KnowledgeBase) Articles() []Article {
	return append([]Article(nil), kb.articles...)
}

// Len returns the number of articles.
func (kb *KnowledgeBase) Len() int {
	return len(kb.articles)
}
