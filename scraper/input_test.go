package scraper

import (
	"testing"

	"buscapisos/config"
	"buscapisos/models"
)

func TestGetInputBuilder(t *testing.T) {
	tests := []struct {
		name    string
		backend *config.BackendConfig
		want    string
	}{
		{"nil profile", nil, "simple"},
		{"empty style", &config.BackendConfig{ID: "x"}, "simple"},
		{"idealista", &config.BackendConfig{ID: "x", InputStyle: "Idealista"}, "idealista"},
		{"unknown", &config.BackendConfig{ID: "x", InputStyle: "fotocasa"}, "simple"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetInputBuilder(tt.backend).Style(); got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestSimpleInput(t *testing.T) {
	price := 150000.0
	input := (&SimpleInput{}).BuildInput(models.SearchIntent{City: "valencia", PriceMax: &price, ForRent: true})
	if input["ciudad"] != "valencia" || input["precio_max"] != 150000 || input["for_rent"] != true {
		t.Fatalf("unexpected input %v", input)
	}

	input = (&SimpleInput{}).BuildInput(models.SearchIntent{City: "madrid"})
	if input["precio_max"] != DefaultSimplePriceMax {
		t.Fatalf("expected default price ceiling, got %v", input["precio_max"])
	}
}

func TestIdealistaInput(t *testing.T) {
	builder := NewIdealistaInput(&config.BackendConfig{MaxItems: 10})
	price := 100000.0
	input := builder.BuildInput(models.SearchIntent{
		City:          "madrid",
		LocationQuery: "28005",
		PriceMax:      &price,
		ResultCount:   5,
	})

	if input["operation"] != "sale" {
		t.Fatalf("expected sale, got %v", input["operation"])
	}
	if input["district"] != "28005" || input["location"] != "madrid" {
		t.Fatalf("unexpected location fields %v", input)
	}
	if input["maxPrice"] != 120000 {
		t.Fatalf("expected band ceiling 120000, got %v", input["maxPrice"])
	}
	if input["maxItems"] != 20 {
		t.Fatalf("expected maxItems raised to 20, got %v", input["maxItems"])
	}
	if input["country"] != "es" || input["propertyType"] != "homes" {
		t.Fatalf("expected profile defaults, got %v", input)
	}

	input = builder.BuildInput(models.SearchIntent{City: "sevilla", ForRent: true})
	if input["operation"] != "rent" || input["district"] != "sevilla" {
		t.Fatalf("unexpected rent input %v", input)
	}
	if _, ok := input["maxPrice"]; ok {
		t.Fatalf("expected no maxPrice without budget")
	}
}

func TestActorPath(t *testing.T) {
	if got := actorPath("user/actor"); got != "user~actor" {
		t.Fatalf("expected user~actor, got %s", got)
	}
	if got := actorPath("abc123"); got != "abc123" {
		t.Fatalf("expected id unchanged, got %s", got)
	}
}
