package scraper

import (
	"log"
	"strings"

	"buscapisos/config"
	"buscapisos/models"
)

// RunInputBuilder turns a search intent into the input document of one
// specific actor. The run/poll/fetch protocol does not depend on it.
type RunInputBuilder interface {
	Style() string
	BuildInput(intent models.SearchIntent) map[string]interface{}
}

// GetInputBuilder returns the builder for a backend profile. Unknown styles
// fall back to the simple builder.
func GetInputBuilder(backend *config.BackendConfig) RunInputBuilder {
	if backend == nil {
		return &SimpleInput{}
	}
	switch strings.ToLower(backend.InputStyle) {
	case "simple", "":
		return &SimpleInput{}
	case "idealista":
		return NewIdealistaInput(backend)
	default:
		log.Printf("Warning: unknown input style %q for backend %s, using simple", backend.InputStyle, backend.ID)
		return &SimpleInput{}
	}
}

// actorPath converts "user/actor" into the "user~actor" form the API expects.
func actorPath(actorID string) string {
	return strings.ReplaceAll(actorID, "/", "~")
}
