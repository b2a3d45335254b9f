// Package corpus provides the immutable response corpus loaded once at startup.
//
// The corpus has three parts: canned responses keyed by topic, advice keyed by
// topic with named sub-strategies, and a question/answer reference set searched
// by the semantic retriever. All collections are read-only after Load; any
// future learning feature must replace the whole Corpus atomically.
package corpus

import (
	"bufio"
	"bytes"
	_ "embed"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

//go:embed data/responses.json
var defaultResponses []byte

//go:embed data/advice.json
var defaultAdvice []byte

//go:embed data/reference.jsonl
var defaultReference []byte

// Topic is one canned-response topic. Keywords trigger the topic when any of
// them is a substring of the normalized utterance; when empty, the key itself
// is the only trigger. Iteration order over Corpus.Topics is the tie-break
// order for matching.
type Topic struct {
	Key       string   `json:"key"`
	Keywords  []string `json:"keywords"`
	Responses []string `json:"responses"`
}

// Strategy is a named advice text within an AdviceTopic, selected by
// sub-intent trigger words.
type Strategy struct {
	Name     string   `json:"name"`
	Triggers []string `json:"triggers"`
	Text     string   `json:"text"`
}

// AdviceTopic maps request phrases to an ordered set of strategies.
type AdviceTopic struct {
	Key        string     `json:"key"`
	Phrases    []string   `json:"phrases"`
	Strategies []Strategy `json:"strategies"`
}

// ReferenceItem is the unit searched by the semantic retriever.
type ReferenceItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Topic    string `json:"topic"`
}

// Corpus is the process-lifetime, read-only response collection.
type Corpus struct {
	Topics     []Topic
	Advice     []AdviceTopic
	Reference  []ReferenceItem
	Defaults   []string // fallback canned responses
	Connectors []string // empathetic prefixes, may contain ""
	Crisis     []string // crisis-resource responses
}

// CrisisResources returns emergency contacts by region.
func CrisisResources() map[string]string {
	return map[string]string{
		"US":     "988 Suicide & Crisis Lifeline",
		"UK":     "116 123 (Samaritans)",
		"IN":     "91-9820466726 (Aasra)",
		"Global": "https://findahelpline.com",
	}
}

type responsesFile struct {
	Default    []string `json:"default"`
	Connectors []string `json:"connectors"`
	Crisis     []string `json:"crisis"`
	Topics     []Topic  `json:"topics"`
}

type adviceFile struct {
	Topics []AdviceTopic `json:"topics"`
}

// Load builds the corpus from the embedded defaults, overridden by
// responses.json, advice.json and reference.jsonl in dataDir when present.
// An empty dataDir loads the embedded defaults only.
func Load(dataDir string) (*Corpus, error) {
	responses := defaultResponses
	advice := defaultAdvice
	reference := defaultReference

	if dataDir != "" {
		if b, ok := readOverride(filepath.Join(dataDir, "responses.json")); ok {
			responses = b
		}
		if b, ok := readOverride(filepath.Join(dataDir, "advice.json")); ok {
			advice = b
		}
		if b, ok := readOverride(filepath.Join(dataDir, "reference.jsonl")); ok {
			reference = b
		}
	}

	var rf responsesFile
	if err := json.Unmarshal(responses, &rf); err != nil {
		return nil, errors.Wrap(err, "parse responses corpus")
	}
	var af adviceFile
	if err := json.Unmarshal(advice, &af); err != nil {
		return nil, errors.Wrap(err, "parse advice corpus")
	}
	items, err := parseReference(reference)
	if err != nil {
		return nil, errors.Wrap(err, "parse reference corpus")
	}

	c := &Corpus{
		Topics:     rf.Topics,
		Advice:     af.Topics,
		Reference:  items,
		Defaults:   rf.Default,
		Connectors: rf.Connectors,
		Crisis:     rf.Crisis,
	}
	if err := c.validate(); err != nil {
		return nil, err
	}

	slog.Info("corpus loaded",
		"topics", len(c.Topics),
		"advice_topics", len(c.Advice),
		"reference_items", len(c.Reference))
	return c, nil
}

// readOverride returns the file contents when the override exists and is
// readable. A missing file is not an error; a broken one is logged and skipped
// so a bad override never takes the service down.
func readOverride(path string) ([]byte, bool) {
	b, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("corpus override unreadable, using embedded defaults", "path", path, "error", err)
		}
		return nil, false
	}
	return b, true
}

func parseReference(data []byte) ([]ReferenceItem, error) {
	var items []ReferenceItem
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var item ReferenceItem
		if err := json.Unmarshal([]byte(line), &item); err != nil {
			// Tolerate malformed lines the same way the rest of the loader
			// tolerates bad overrides.
			slog.Warn("skipping malformed reference line", "error", err)
			continue
		}
		if item.Question == "" || item.Answer == "" {
			continue
		}
		items = append(items, item)
	}
	return items, scanner.Err()
}

func (c *Corpus) validate() error {
	if len(c.Defaults) == 0 {
		return errors.New("corpus has no default responses")
	}
	if len(c.Crisis) == 0 {
		return errors.New("corpus has no crisis responses")
	}
	for _, t := range c.Topics {
		if t.Key == "" || len(t.Responses) == 0 {
			return errors.Errorf("topic %q has no responses", t.Key)
		}
	}
	for _, a := range c.Advice {
		if len(a.Strategies) == 0 {
			return errors.Errorf("advice topic %q has no strategies", a.Key)
		}
	}
	return nil
}

// TriggersFor returns the effective trigger keywords for a topic.
func (t Topic) TriggersFor() []string {
	if len(t.Keywords) > 0 {
		return t.Keywords
	}
	return []string{t.Key}
}
