package server

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"buscapisos/prompts"
	"buscapisos/services"
)

type searchQuery struct {
	Q         string   `form:"q"`
	Ciudad    string   `form:"ciudad"`
	PrecioMax *float64 `form:"precio_max"`
	ForRent   bool     `form:"for_rent"`
	N         int      `form:"n"`
}

type investQuery struct {
	Q       string   `form:"q"`
	Reforma float64  `form:"reforma"`
	Entrada *float64 `form:"entrada"`
	Interes *float64 `form:"interes"`
	Plazo   *int     `form:"plazo"`
}

func (s *Server) handleSearch(c *gin.Context) {
	var req searchQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "parámetros no válidos", "detail": err.Error()})
		return
	}

	var (
		resp *services.SearchResponse
		err  error
	)
	if q := strings.TrimSpace(req.Q); q != "" {
		resp, err = s.search.Search(c.Request.Context(), q)
	} else {
		resp, err = s.search.SearchTyped(c.Request.Context(), req.Ciudad, req.PrecioMax, req.ForRent, req.N)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleStream(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	chunks := s.search.Stream(c.Request.Context(), q)

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("X-Content-Type-Options", "nosniff")
	c.Status(http.StatusOK)
	c.Stream(func(w io.Writer) bool {
		chunk, ok := <-chunks
		if !ok {
			return false
		}
		io.WriteString(w, chunk)
		return true
	})
}

func (s *Server) handleInvest(c *gin.Context) {
	var req investQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "parámetros no válidos", "detail": err.Error()})
		return
	}

	resp, err := s.search.Invest(c.Request.Context(), services.InvestmentRequest{
		Query:       strings.TrimSpace(req.Q),
		Renovation:  req.Reforma,
		DownPayment: fraction(req.Entrada, 1),
		AnnualRate:  fraction(req.Interes, 0.5),
		Years:       req.Plazo,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// fraction accepts either 0.2 or 20 for twenty percent. Values above limit
// are read as percentages.
func fraction(v *float64, limit float64) *float64 {
	if v == nil {
		return nil
	}
	f := *v
	if f > limit {
		f = f / 100
	}
	return &f
}

func (s *Server) handleHealth(c *gin.Context) {
	body := gin.H{
		"status":  "ok",
		"profile": s.search.Backend(),
		"backend": "unknown",
	}
	if actor := s.search.ActorID(); actor != "" {
		body["actor_id"] = actor
	}
	if s.health != nil {
		if h, ok := s.health.Last(); ok {
			body["backend"] = h.Status
			body["backend_checked_at"] = h.CheckedAt.Format(time.RFC3339)
			if h.Error != "" {
				body["backend_error"] = h.Error
			}
		}
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleGetPrompts(c *gin.Context) {
	c.JSON(http.StatusOK, s.prompts.Get())
}

func (s *Server) handleUpdatePrompts(c *gin.Context) {
	var patch prompts.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "JSON no válido", "detail": err.Error()})
		return
	}
	if patch.Empty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "indica assistant_prompt o summary_prompt"})
		return
	}

	updated, err := s.prompts.Update(patch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
