package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/pneumonia-cds-server/internal/domain"
)

// ClassifierClient calls the x-ray image classifier service. Requests
// pass through a rate limiter and a circuit breaker; verdicts are
// cached by image hash when a prediction cache is attached.
type ClassifierClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	cache      *PredictionCache
	log        *logrus.Logger
}

// NewClassifierClient creates a classifier client. The cache may be nil
// when Redis is not configured; predictions are then fetched every time.
func NewClassifierClient(config domain.ClassifierConfig, cache *PredictionCache, log *logrus.Logger) *ClassifierClient {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	rps := config.RateLimit
	if rps <= 0 {
		rps = 10
	}
	burst := config.RateBurst
	if burst <= 0 {
		burst = int(rps)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "Classifier",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return &ClassifierClient{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		breaker: breaker,
		cache:   cache,
		log:     log,
	}
}

// predictResponse is the classifier service's wire format. Some
// deployments return "prediction" directly, older ones return a
// "diagnosis" label plus a pneumonia type.
type predictResponse struct {
	Prediction    string             `json:"prediction"`
	Diagnosis     string             `json:"diagnosis"`
	PneumoniaType string             `json:"pneumonia_type"`
	Confidence    float64            `json:"confidence"`
	Probabilities map[string]float64 `json:"probabilities"`
}

// Classify sends the image to the classifier and returns its verdict.
// Returns domain.ErrClassifierUnavailable when the circuit breaker is
// open and no cached verdict exists.
func (c *ClassifierClient) Classify(ctx context.Context, image []byte, filename string) (domain.ModelPrediction, error) {
	// Check cache first
	if c.cache != nil {
		if cached, found, err := c.cache.Get(ctx, image); err == nil && found {
			c.log.WithField("filename", filename).Debug("Prediction cache hit")
			return cached, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return domain.ModelPrediction{}, err
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.predict(ctx, image, filename)
	})

	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			// Fall back to a cached verdict if we have one
			if c.cache != nil {
				if cached, found, cacheErr := c.cache.Get(ctx, image); cacheErr == nil && found {
					return cached, nil
				}
			}
			return domain.ModelPrediction{}, domain.ErrClassifierUnavailable
		}
		return domain.ModelPrediction{}, fmt.Errorf("classifier request failed: %w", err)
	}

	prediction := result.(domain.ModelPrediction)

	// Cache the verdict
	if c.cache != nil {
		if cacheErr := c.cache.Set(ctx, image, prediction, 0); cacheErr != nil {
			c.log.WithError(cacheErr).Warn("Failed to cache prediction")
		}
	}

	return prediction, nil
}

// predict performs the multipart upload to the /predict endpoint.
func (c *ClassifierClient) predict(ctx context.Context, image []byte, filename string) (domain.ModelPrediction, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if filename == "" {
		filename = "xray.png"
	}

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return domain.ModelPrediction{}, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return domain.ModelPrediction{}, fmt.Errorf("failed to write image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return domain.ModelPrediction{}, fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/predict", &body)
	if err != nil {
		return domain.ModelPrediction{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.ModelPrediction{}, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.ModelPrediction{}, fmt.Errorf("classifier returned status %d", resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.ModelPrediction{}, fmt.Errorf("failed to read response: %w", err)
	}

	var parsed predictResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return domain.ModelPrediction{}, fmt.Errorf("failed to parse response: %w", err)
	}

	category := mapPredictionCategory(parsed)
	if category == "" {
		return domain.ModelPrediction{}, fmt.Errorf("classifier returned unrecognized category %q", parsed.Prediction)
	}

	return domain.ModelPrediction{
		Category:   category,
		Confidence: normalizeConfidence(parsed.Confidence),
	}, nil
}

// Health checks the classifier's /health endpoint.
func (c *ClassifierClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create health request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("classifier health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("classifier health returned status %d", resp.StatusCode)
	}
	return nil
}

// BreakerState returns the current circuit breaker state.
func (c *ClassifierClient) BreakerState() gobreaker.State {
	return c.breaker.State()
}

// BreakerCounts returns circuit breaker request statistics.
func (c *ClassifierClient) BreakerCounts() gobreaker.Counts {
	return c.breaker.Counts()
}

// Close releases the prediction cache connection if one is attached.
func (c *ClassifierClient) Close() error {
	if c.cache != nil {
		return c.cache.Close()
	}
	return nil
}

// mapPredictionCategory resolves the wire category. The "prediction"
// field carries the category directly; older deployments send a
// "diagnosis" label that needs the pneumonia type to disambiguate.
func mapPredictionCategory(resp predictResponse) domain.Category {
	if resp.Prediction != "" {
		candidate := domain.Category(strings.ToUpper(resp.Prediction))
		if candidate.IsValid() {
			return candidate
		}
	}

	switch strings.ToUpper(resp.Diagnosis) {
	case "NORMAL":
		return domain.NORMAL
	case "PNEUMONIA":
		switch strings.ToLower(resp.PneumoniaType) {
		case "viral":
			return domain.VIRAL_PNEUMONIA
		default:
			return domain.BACTERIAL_PNEUMONIA
		}
	case "COVID", "COVID-19":
		return domain.COVID
	case "TB", "TUBERCULOSIS":
		return domain.TB
	}

	return ""
}

// normalizeConfidence maps percentage-scale confidences onto [0,1].
// The classifier reports percentages; some variants report fractions.
func normalizeConfidence(confidence float64) float64 {
	if confidence > 1 {
		confidence = confidence / 100
	}
	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}
