package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSkills(t *testing.T) {
	t.Run("lowercases and trims", func(t *testing.T) {
		got := NormalizeSkills([]string{"  Go ", "PYTHON", "Kubernetes"})
		assert.Equal(t, []string{"go", "python", "kubernetes"}, got)
	})

	t.Run("drops empties and duplicates keeping first-seen order", func(t *testing.T) {
		got := NormalizeSkills([]string{"Go", "", "  ", "go", "GO", "Rust"})
		assert.Equal(t, []string{"go", "rust"}, got)
	})

	t.Run("empty input yields empty output", func(t *testing.T) {
		assert.Empty(t, NormalizeSkills(nil))
		assert.Empty(t, NormalizeSkills([]string{}))
	})
}

func TestTokenizeSkills(t *testing.T) {
	t.Run("keeps language punctuation", func(t *testing.T) {
		got := TokenizeSkills("Proficient in C++, C# and Node.js")
		assert.Contains(t, got, "c++")
		assert.Contains(t, got, "node.js")
		// "C#" is two runes and falls under the minimum token length
		assert.NotContains(t, got, "c#")
	})

	t.Run("strips trailing dots", func(t *testing.T) {
		got := TokenizeSkills("Experienced with Docker. Also Terraform.")
		assert.Contains(t, got, "docker")
		assert.Contains(t, got, "terraform")
	})

	t.Run("drops stop words and short tokens", func(t *testing.T) {
		got := TokenizeSkills("work with the team using Go")
		assert.NotContains(t, got, "with")
		assert.NotContains(t, got, "the")
		assert.NotContains(t, got, "team")
		assert.NotContains(t, got, "go")
	})

	t.Run("deduplicates", func(t *testing.T) {
		got := TokenizeSkills("python Python PYTHON")
		assert.Equal(t, []string{"python"}, got)
	})

	t.Run("empty text", func(t *testing.T) {
		assert.Empty(t, TokenizeSkills(""))
		assert.Empty(t, TokenizeSkills("a an it"))
	})
}
