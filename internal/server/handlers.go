package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/spiffcs/gitgazer/internal/aggregate"
	"github.com/spiffcs/gitgazer/internal/model"
	"github.com/spiffcs/gitgazer/internal/output"
	"github.com/spiffcs/gitgazer/internal/service"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// kindInvalidParameter reports a malformed query parameter.
const kindInvalidParameter model.ErrorKind = "invalid_parameter"

// errorResponse mirrors output.JSONError for request validation failures.
type errorResponse struct {
	Error *model.ErrorResult `json:"error"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "healthy", Version: s.version})
}

// analyze runs the analysis and writes the error response itself when the
// fetch failed. ok is false in that case.
func (s *Server) analyze(c *gin.Context) (service.Report, *model.SuccessResult, bool) {
	report := s.analyzer.Analyze(c.Request.Context(), c.Param("username"))

	switch res := report.Result.(type) {
	case *model.SuccessResult:
		if report.FromCache {
			c.Header("X-Cache", "HIT")
		} else {
			c.Header("X-Cache", "MISS")
		}
		return report, res, true
	case *model.ErrorResult:
		c.JSON(statusFor(res), output.Document(report))
	default:
		c.JSON(http.StatusInternalServerError, output.Document(report))
	}
	return report, nil, false
}

func statusFor(e *model.ErrorResult) int {
	switch e.Kind {
	case model.ErrorEmptyInput:
		return http.StatusBadRequest
	case model.ErrorProfileUnavailable:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) profile(c *gin.Context) {
	report, _, ok := s.analyze(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, output.Document(report))
}

func (s *Server) languages(c *gin.Context) {
	report, _, ok := s.analyze(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": report.Username, "languages": report.Languages})
}

func (s *Server) top(c *gin.Context) {
	n := s.analyzer.TopN()
	if raw := c.Query("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, errorResponse{Error: &model.ErrorResult{
				Kind:    kindInvalidParameter,
				Message: "n must be a non-negative integer",
			}})
			return
		}
		n = parsed
	}

	report, res, ok := s.analyze(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"username":   report.Username,
		"n":          n,
		"topStarred": aggregate.TopByStars(res.Repositories, n),
	})
}

func (s *Server) timeline(c *gin.Context) {
	report, _, ok := s.analyze(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": report.Username, "timeline": report.Timeline})
}

func (s *Server) repositories(c *gin.Context) {
	report, _, ok := s.analyze(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": report.Username, "repositories": report.Rows})
}
