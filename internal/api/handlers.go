package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pneumonia-cds-server/internal/domain"
	"github.com/pneumonia-cds-server/internal/feedback"
	"github.com/pneumonia-cds-server/internal/service"
)

// maxImageBytes bounds x-ray uploads. Chest films are a few MB at most.
const maxImageBytes = 20 << 20

// handleAnalyze accepts a multipart upload with the x-ray image plus the
// optional symptom intake, runs the full pipeline, and returns the report.
func (s *Server) handleAnalyze(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImageBytes)

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		// Older clients post the classifier's field name
		file, header, err = c.Request.FormFile("file")
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image file is required"})
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read image data"})
		return
	}
	if len(image) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image file is empty"})
		return
	}

	var profile *domain.SymptomProfile
	if raw := c.PostForm("symptoms"); raw != "" {
		profile = &domain.SymptomProfile{}
		if err := json.Unmarshal([]byte(raw), profile); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid symptoms JSON"})
			return
		}
	}

	report, err := s.analysis.Analyze(c.Request.Context(), &service.AnalysisRequest{
		Image:          image,
		Filename:       header.Filename,
		Symptoms:       profile,
		PatientAge:     c.PostForm("patientAge"),
		MedicalHistory: c.PostForm("medicalHistory"),
	})
	if err != nil {
		if errors.Is(err, domain.ErrClassifierUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Image classifier is unavailable"})
			return
		}
		s.log.WithError(err).Error("Analysis failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Analysis failed"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// handleScore scores a symptom profile without imaging input.
func (s *Server) handleScore(c *gin.Context) {
	var profile domain.SymptomProfile
	if err := c.ShouldBindJSON(&profile); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid symptom profile"})
		return
	}

	c.JSON(http.StatusOK, s.analysis.ScoreSymptoms(&profile))
}

// handleRisk runs the COVID and TB screens over a symptom profile.
func (s *Server) handleRisk(c *gin.Context) {
	var profile domain.SymptomProfile
	if err := c.ShouldBindJSON(&profile); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid symptom profile"})
		return
	}

	covid, tb := s.analysis.AssessRisks(&profile)
	c.JSON(http.StatusOK, gin.H{
		"covidRisk": covid,
		"tbRisk":    tb,
	})
}

// recommendationRequest carries a category verdict for standalone guidance.
// Confidence is on the 0-100 scale the clinician-facing UI uses.
type recommendationRequest struct {
	Category       domain.Category        `json:"category"`
	Confidence     float64                `json:"confidence"`
	Symptoms       *domain.SymptomProfile `json:"symptoms"`
	PatientAge     string                 `json:"patientAge"`
	MedicalHistory string                 `json:"medicalHistory"`
}

// handleRecommendation builds clinical guidance for a known category.
func (s *Server) handleRecommendation(c *gin.Context) {
	var req recommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if !req.Category.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown diagnostic category"})
		return
	}

	rec := s.analysis.Recommend(req.Category, req.Confidence, req.Symptoms, req.PatientAge, req.MedicalHistory)
	c.JSON(http.StatusOK, rec)
}

// handleGetAnalysis retrieves a finished report by reference number.
func (s *Server) handleGetAnalysis(c *gin.Context) {
	reference := c.Param("reference")

	report, err := s.analysis.GetReport(c.Request.Context(), reference)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Analysis not found"})
			return
		}
		s.log.WithError(err).WithField("reference", reference).Error("Report lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve analysis"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// handleListAnalyses returns the most recent persisted analyses.
func (s *Server) handleListAnalyses(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		if parsed > 100 {
			parsed = 100
		}
		limit = parsed
	}

	records, err := s.analysis.ListRecent(c.Request.Context(), limit)
	if err != nil {
		s.log.WithError(err).Error("Analysis listing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list analyses"})
		return
	}
	if records == nil {
		records = []*domain.AnalysisRecord{}
	}

	c.JSON(http.StatusOK, gin.H{
		"count":    len(records),
		"analyses": records,
	})
}

// handleStats returns the number of persisted analyses per diagnostic
// category, for the clinician-facing dashboard.
func (s *Server) handleStats(c *gin.Context) {
	counts, err := s.analysis.Stats(c.Request.Context())
	if err != nil {
		s.log.WithError(err).Error("Stats query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute statistics"})
		return
	}

	var total int64
	for _, count := range counts {
		total += count
	}

	c.JSON(http.StatusOK, gin.H{
		"total":      total,
		"categories": counts,
	})
}

// handlePruneAnalyses removes persisted analyses older than the requested
// retention horizon. Admin operation; requires an explicit retention_days.
func (s *Server) handlePruneAnalyses(c *gin.Context) {
	days, err := strconv.Atoi(c.Query("retention_days"))
	if err != nil || days <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "retention_days must be a positive integer"})
		return
	}

	removed, err := s.analysis.PruneReports(c.Request.Context(), days)
	if err != nil {
		s.log.WithError(err).Error("Analysis pruning failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to prune analyses"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"removed":        removed,
		"retention_days": days,
	})
}

// handleSaveFeedback records a clinician's verdict on an analysis.
func (s *Server) handleSaveFeedback(c *gin.Context) {
	if s.feedback == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Feedback store is not configured"})
		return
	}

	var fb feedback.Feedback
	if err := c.ShouldBindJSON(&fb); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid feedback body"})
		return
	}
	if fb.ReferenceNumber == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "referenceNumber is required"})
		return
	}
	if !fb.SuggestedCategory.IsValid() || !fb.ClinicianCategory.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown diagnostic category"})
		return
	}

	if err := s.feedback.Save(c.Request.Context(), &fb); err != nil {
		s.log.WithError(err).Error("Feedback save failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save feedback"})
		return
	}

	c.JSON(http.StatusOK, fb)
}

// handleListFeedback returns stored clinician feedback with pagination.
func (s *Server) handleListFeedback(c *gin.Context) {
	if s.feedback == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Feedback store is not configured"})
		return
	}

	limit := 50
	offset := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = parsed
	}
	if raw := c.Query("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid offset"})
			return
		}
		offset = parsed
	}

	list, err := s.feedback.List(c.Request.Context(), limit, offset)
	if err != nil {
		s.log.WithError(err).Error("Feedback listing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list feedback"})
		return
	}
	if list == nil {
		list = []*feedback.Feedback{}
	}

	total, err := s.feedback.Count(c.Request.Context())
	if err != nil {
		s.log.WithError(err).Error("Feedback count failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count feedback"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":    total,
		"feedback": list,
	})
}
