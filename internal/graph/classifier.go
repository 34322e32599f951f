package graph

import (
	"strings"
	"unicode/utf8"

	"basegraph.app/advisor/internal/model"
)

const minComponentRunes = 10

// Rule binds one bucket to the keywords that put a sentence into it.
type Rule struct {
	Bucket   model.Bucket
	Keywords []string
}

// Classifier sorts sentences into component buckets by keyword. Rules are
// evaluated in table order; a sentence may land in more than one bucket.
type Classifier struct {
	Rules []Rule
}

// DefaultRules is the stock bucket table.
func DefaultRules() []Rule {
	return []Rule{
		{Bucket: model.BucketCloud, Keywords: []string{"aws", "azure", "gcp", "cloud", "serverless", "lambda", "ec2", "s3", "rds", "kubernetes", "docker"}},
		{Bucket: model.BucketDatabase, Keywords: []string{"database", "db", "postgresql", "mysql", "mongodb", "redis", "elasticsearch", "dynamodb", "sql", "nosql"}},
		{Bucket: model.BucketAPI, Keywords: []string{"api", "rest", "graphql", "gateway", "endpoint", "service mesh"}},
		{Bucket: model.BucketMicroservice, Keywords: []string{"microservice", "service", "container", "pod", "deployment"}},
		{Bucket: model.BucketStorage, Keywords: []string{"storage", "file", "blob", "s3", "bucket", "cdn"}},
		{Bucket: model.BucketSecurity, Keywords: []string{"security", "auth", "authentication", "authorization", "ssl", "tls", "encryption"}},
		{Bucket: model.BucketMonitoring, Keywords: []string{"monitoring", "logging", "metrics", "observability", "prometheus", "grafana"}},
		{Bucket: model.BucketUI, Keywords: []string{"ui", "frontend", "web", "mobile", "react", "angular", "vue"}},
	}
}

func NewClassifier() *Classifier {
	return &Classifier{Rules: DefaultRules()}
}

// ExtractComponents runs the default classifier over turns.
func ExtractComponents(turns []model.Turn) model.Components {
	return NewClassifier().Extract(turns)
}

// Extract scans every specialist turn once. Matching is done on the
// lower-cased text and the stored sentences are lower-cased too, so the
// same sentence written with different casing collapses to one entry.
// Every bucket of the table is present in the result, possibly empty.
func (c *Classifier) Extract(turns []model.Turn) model.Components {
	acc := make(map[model.Bucket]*bucketSet, len(c.Rules))
	for _, r := range c.Rules {
		if _, ok := acc[r.Bucket]; !ok {
			acc[r.Bucket] = newBucketSet()
		}
	}

	for _, t := range turns {
		if t.Speaker.IsRequester() {
			continue
		}
		lowered := strings.ToLower(t.Text)
		var sentences []string
		for _, r := range c.Rules {
			if !containsAny(lowered, r.Keywords) {
				continue
			}
			if sentences == nil {
				sentences = splitSentences(lowered)
			}
			for _, s := range sentences {
				if containsAny(s, r.Keywords) {
					acc[r.Bucket].add(s)
				}
			}
		}
	}

	out := make(model.Components, len(acc))
	for b, set := range acc {
		out[b] = set.first(model.MaxComponentsPerBucket)
	}
	return out
}

func splitSentences(text string) []string {
	var out []string
	for _, s := range strings.Split(text, ".") {
		s = strings.TrimSpace(s)
		if utf8.RuneCountInString(s) > minComponentRunes {
			out = append(out, s)
		}
	}
	return out
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// bucketSet dedupes while remembering first-seen order.
type bucketSet struct {
	seen  map[string]struct{}
	order []string
}

func newBucketSet() *bucketSet {
	return &bucketSet{seen: make(map[string]struct{})}
}

func (s *bucketSet) add(v string) {
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.order = append(s.order, v)
}

func (s *bucketSet) first(n int) []string {
	out := make([]string, 0, min(n, len(s.order)))
	for i := 0; i < len(s.order) && i < n; i++ {
		out = append(out, s.order[i])
	}
	return out
}
