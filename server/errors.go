package server

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"buscapisos/ai"
	"buscapisos/models"
	"buscapisos/scraper"
	"buscapisos/services"
)

// writeError maps pipeline errors to their responses. Every error is logged.
func writeError(c *gin.Context, err error) {
	log.Printf("Request %s failed: %v", c.Writer.Header().Get(requestIDHeader), err)

	var (
		cfgErr    *scraper.ConfigurationError
		ambErr    *services.QueryAmbiguousError
		noResults *services.NoResultsError
		trErr     *scraper.TransportError
		jobErr    *scraper.JobFailedError
		protoErr  *scraper.ProtocolError
		compErr   *ai.CompletionError
	)

	switch {
	case errors.As(err, &cfgErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "el servicio de búsqueda no está configurado",
			"detail":  cfgErr.Error(),
			"missing": cfgErr.Missing,
		})
	case errors.As(err, &ambErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":    ambErr.Message(),
			"missing":  ambErr.Missing,
			"ejemplos": ambErr.Examples,
		})
	case errors.As(err, &noResults):
		c.JSON(http.StatusOK, gin.H{
			"mensaje":     noResults.Message(),
			"sugerencias": noResults.Suggestions(),
			"propiedades": []models.CanonicalListing{},
		})
	case errors.As(err, &trErr):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":  "error de comunicación con el servicio de scraping",
			"stage":  trErr.Stage,
			"detail": trErr.Error(),
		})
	case errors.As(err, &jobErr):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":  "la búsqueda en el servicio de scraping no terminó correctamente",
			"status": jobErr.BackendStatus(),
		})
	case errors.As(err, &protoErr):
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "respuesta inesperada del servicio de scraping",
			"field": protoErr.Field,
			"raw":   protoErr.Raw,
		})
	case errors.As(err, &compErr):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":  "error de comunicación con el servicio de IA",
			"stage":  "completion",
			"detail": compErr.Error(),
		})
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "la búsqueda se canceló antes de terminar"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
