package llms

import (
	"testing"

	"github.com/lexalign/concordance/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPrompt(t *testing.T) {
	prompt, err := RenderPrompt(models.PurposeAnalyzeV2, map[string]string{
		models.VarParagraphsLanguageOne: "  The fee is EUR 100.  ",
		models.VarParagraphsLanguageTwo: "Maksa ir EUR 1000.",
	})
	require.NoError(t, err)
	assert.Contains(t, prompt, "\"\"\"\nThe fee is EUR 100.\n\"\"\"")
	assert.Contains(t, prompt, "Maksa ir EUR 1000.")

	prompt, err = RenderPrompt(models.PurposeTestGenerator, nil)
	require.NoError(t, err)
	assert.Contains(t, prompt, "Produce 1 variants")

	for purpose := range promptTemplates {
		_, err := RenderPrompt(purpose, map[string]string{})
		assert.NoError(t, err, purpose)
	}
}

func TestPromptVariables(t *testing.T) {
	vars, err := PromptVariables(map[string]any{
		"text":   "plain",
		"count":  2,
		"list":   []string{"P1", "P2"},
		"object": map[string]any{"entitytype": "dates"},
		"empty":  nil,
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"text":   "plain",
		"count":  "2",
		"list":   `["P1","P2"]`,
		"object": `{"entitytype":"dates"}`,
		"empty":  "",
	}, vars)

	_, err = PromptVariables(map[string]any{"bad": make(chan int)})
	assert.Error(t, err)
}
