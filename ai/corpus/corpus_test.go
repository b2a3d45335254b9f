package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbedded(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	assert.NotEmpty(t, c.Topics)
	assert.NotEmpty(t, c.Advice)
	assert.NotEmpty(t, c.Reference)
	assert.NotEmpty(t, c.Defaults)
	assert.NotEmpty(t, c.Crisis)

	// The stress topic must exist and enumerate before less specific
	// topics, since matching order is corpus order.
	require.Equal(t, "stress", c.Topics[0].Key)
	assert.Contains(t, c.Topics[0].Keywords, "stress")
}

func TestLoadOverrideDir(t *testing.T) {
	dir := t.TempDir()
	override := `{"default":["d"],"connectors":[""],"crisis":["c"],"topics":[{"key":"sleep","keywords":["sleep"],"responses":["rest up"]}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "responses.json"), []byte(override), 0o644))

	c, err := Load(dir)
	require.NoError(t, err)

	// Responses replaced wholesale, other files keep embedded defaults.
	require.Len(t, c.Topics, 1)
	assert.Equal(t, "sleep", c.Topics[0].Key)
	assert.Equal(t, []string{"d"}, c.Defaults)
	assert.NotEmpty(t, c.Advice)
	assert.NotEmpty(t, c.Reference)
}

func TestLoadBrokenOverrideFallsBack(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "advice.json"), []byte("{not json"), 0o644))

	_, err := Load(dir)
	// A broken override parse fails loudly rather than shipping half a
	// corpus.
	assert.Error(t, err)
}

func TestParseReferenceSkipsBadLines(t *testing.T) {
	data := []byte(`{"question":"q1","answer":"a1","topic":"t"}
not json at all
{"question":"","answer":"missing question"}
{"question":"q2","answer":"a2"}

`)
	items, err := parseReference(data)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "q1", items[0].Question)
	assert.Equal(t, "q2", items[1].Question)
}

func TestValidate(t *testing.T) {
	c := &Corpus{Defaults: []string{"d"}, Crisis: []string{"c"}}
	assert.NoError(t, c.validate())

	c.Topics = []Topic{{Key: "empty"}}
	assert.Error(t, c.validate())

	c = &Corpus{Crisis: []string{"c"}}
	assert.Error(t, c.validate())
}

func TestTriggersFor(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Topic{Key: "k", Keywords: []string{"a", "b"}}.TriggersFor())
	assert.Equal(t, []string{"k"}, Topic{Key: "k"}.TriggersFor())
}

func TestCrisisResources(t *testing.T) {
	r := CrisisResources()
	assert.Contains(t, r, "Global")
	assert.NotEmpty(t, r["US"])
}
