package prompts

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string {
	return &s
}

func TestGet_MissingFileReturnsDefaults(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "prompts.json"))
	assert.Equal(t, Defaults(), store.Get())
}

func TestGet_UnreadableFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	assert.Equal(t, Defaults(), NewStore(path).Get())
}

func TestUpdate_Partial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prompts.json")
	store := NewStore(path)
	assert.Equal(t, path, store.Path())

	got, err := store.Update(Patch{AssistantPrompt: strPtr("Sé breve.")})
	require.NoError(t, err)
	assert.Equal(t, "Sé breve.", got.AssistantPrompt)
	assert.Equal(t, DefaultSummaryPrompt, got.SummaryPrompt)

	got, err = store.Update(Patch{SummaryPrompt: strPtr("Una frase.")})
	require.NoError(t, err)
	assert.Equal(t, "Sé breve.", got.AssistantPrompt)
	assert.Equal(t, "Una frase.", got.SummaryPrompt)

	// A fresh store on the same file sees the persisted values.
	assert.Equal(t, got, NewStore(path).Get())
}

func TestUpdate_EmptyValueFallsBackToDefault(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "prompts.json"))

	got, err := store.Update(Patch{AssistantPrompt: strPtr("")})
	require.NoError(t, err)
	assert.Equal(t, DefaultAssistantPrompt, got.AssistantPrompt)
}

func TestUpdate_ConcurrentWritersLeaveValidFile(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "prompts.json"))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Update(Patch{SummaryPrompt: strPtr("concurrente")})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, "concurrente", store.Get().SummaryPrompt)
}

func TestPatchEmpty(t *testing.T) {
	assert.True(t, Patch{}.Empty())
	assert.False(t, Patch{SummaryPrompt: strPtr("x")}.Empty())
}
