package tools

import (
	"context"
	"math"
	"sort"
	"strings"
	"unicode"
)

// Tool names registered by RegisterSupportTools.
const (
	SearchKnowledgeTool = "search_knowledge"
	KeywordSearchTool   = "keyword_search"
	ProcessRefundTool   = "process_refund"
)

// DefaultSearchLimit is the number of hits returned when no limit is given.
const DefaultSearchLimit = 3

// Hit is a ranked knowledge base result.
type Hit struct {
	ArticleID string  `json:"article_id"`
	Title     string  `json:"title"`
	Content   string  `json:"content"`
	Score     float64 `json:"score"`
}

type searchArgs struct {
	Query string `mapstructure:"query"`
	Limit int    `mapstructure:"limit"`
}

func parseSearchArgs(args map[string]any) (searchArgs, error) {
	var a searchArgs
	if err := decodeArgs(args, &a); err != nil {
		return a, err
	}
	if strings.TrimSpace(a.Query) == "" {
		return a, &ArgsError{Msg: "query is required"}
	}
	if a.Limit <= 0 {
		a.Limit = DefaultSearchLimit
	}
	return a, nil
}

// SemanticSearch ranks articles by cosine similarity of term-frequency vectors.
func SemanticSearch(kb *KnowledgeBase, query string, limit int) []Hit {
	q := termFreq(tokenize(query))
	if len(q) == 0 {
		return []Hit{}
	}

	var hits []Hit
	for _, a := range kb.articles {
		doc := termFreq(tokenize(a.Title + " " + a.Content + " " + strings.Join(a.Tags, " ")))
		if score := cosine(q, doc); score > 0 {
			hits = append(hits, Hit{ArticleID: a.ID, Title: a.Title, Content: a.Content, Score: score})
		}
	}
	return top(hits, limit)
}

// KeywordSearch scores each query term: 3 for a title match, 2 for content, 1 for tags.
func KeywordSearch(kb *KnowledgeBase, query string, limit int) []Hit {
	terms := tokenize(query)

	var hits []Hit
	for _, a := range kb.articles {
		title := strings.ToLower(a.Title)
		content := strings.ToLower(a.Content)
		tags := strings.ToLower(strings.Join(a.Tags, " "))

		score := 0
		for _, term := range terms {
			if strings.Contains(title, term) {
				score += 3
			}
			if strings.Contains(content, term) {
				score += 2
			}
			if strings.Contains(tags, term) {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, Hit{ArticleID: a.ID, Title: a.Title, Content: a.Content, Score: float64(score)})
		}
	}
	return top(hits, limit)
}

func top(hits []Hit, limit int) []Hit {
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	if hits == nil {
		return []Hit{}
	}
	return hits
}

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "you": true, "your": true, "can": true,
	"not": true, "but": true, "with": true, "have": true, "this": true, "that": true,
	"are": true, "was": true, "from": true, "how": true, "what": true, "why": true,
}

// tokenize lowercases text and keeps terms of three or more letters or digits.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len(f) >= 3 && !stopwords[f] {
			out = append(out, f)
		}
	}
	return out
}

func termFreq(terms []string) map[string]float64 {
	tf := make(map[string]float64, len(terms))
	for _, t := range terms {
		tf[t]++
	}
	return tf
}

func cosine(a, b map[string]float64) float64 {
	var dot, na, nb float64
	for t, v := range a {
		dot += v * b[t]
		na += v * v
	}
	for _, v := range b {
		nb += v * v
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func searchTool(kb *KnowledgeBase, search func(*KnowledgeBase, string, int) []Hit) ToolFunction {
	return func(ctx context.Context, args map[string]any) (any, error) {
		a, err := parseSearchArgs(args)
		if err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return search(kb, a.Query, a.Limit), nil
	}
}
