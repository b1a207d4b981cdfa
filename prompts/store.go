// Package prompts persists the editable completion prompts in a small JSON
// file shared by every request.
package prompts

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"buscapisos/models"
)

const (
	DefaultAssistantPrompt = "Eres un asesor inmobiliario experto en inversión en España. " +
		"Analiza las propiedades que recibes y elige las mejores para el inversor según " +
		"rentabilidad neta, cashflow anual y precio. Responde solo con datos de la lista."

	DefaultSummaryPrompt = "Resume en un párrafo breve, en español, las oportunidades de " +
		"inversión de esta búsqueda: rango de precios, rentabilidades y la opción más destacada."
)

// Defaults returns the built-in prompts.
func Defaults() models.Prompts {
	return models.Prompts{
		AssistantPrompt: DefaultAssistantPrompt,
		SummaryPrompt:   DefaultSummaryPrompt,
	}
}

// Patch is a partial update; nil fields keep their current value.
type Patch struct {
	AssistantPrompt *string `json:"assistant_prompt"`
	SummaryPrompt   *string `json:"summary_prompt"`
}

func (p Patch) Empty() bool {
	return p.AssistantPrompt == nil && p.SummaryPrompt == nil
}

// Store reads and writes the prompt file. Writes from this process are
// serialized; across processes the last writer wins.
type Store struct {
	mu   sync.Mutex
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

// Get returns the stored prompts. A missing or unreadable file, or an
// empty field, yields the defaults.
func (s *Store) Get() models.Prompts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Update applies patch over the current prompts and writes the result.
func (s *Store) Update(patch Patch) (models.Prompts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.load()
	if patch.AssistantPrompt != nil {
		current.AssistantPrompt = *patch.AssistantPrompt
	}
	if patch.SummaryPrompt != nil {
		current.SummaryPrompt = *patch.SummaryPrompt
	}

	if err := s.save(current); err != nil {
		return current, err
	}
	log.Printf("Prompts updated: %s", s.path)
	return withDefaults(current), nil
}

func (s *Store) load() models.Prompts {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: could not read prompts %s: %v", s.path, err)
		}
		return Defaults()
	}

	var p models.Prompts
	if err := json.Unmarshal(data, &p); err != nil {
		log.Printf("Warning: invalid prompts file %s: %v", s.path, err)
		return Defaults()
	}
	return withDefaults(p)
}

func (s *Store) save(p models.Prompts) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encode prompts: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create prompts dir: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write prompts: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace prompts: %w", err)
	}
	return nil
}

func withDefaults(p models.Prompts) models.Prompts {
	if p.AssistantPrompt == "" {
		p.AssistantPrompt = DefaultAssistantPrompt
	}
	if p.SummaryPrompt == "" {
		p.SummaryPrompt = DefaultSummaryPrompt
	}
	return p
}
