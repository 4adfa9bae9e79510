package intelligence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"therapy/apperrors"
	"therapy/models"
	"therapy/observability"

	"go.uber.org/zap"
)

const (
	kindRecommendation = "recommendation"
	kindFollowUp       = "follow_up"
	kindConfirmation   = "confirmation"
)

// Copywriter produces optional generated text. Every method falls back to
// canned content and never returns a generation error.
type Copywriter struct {
	gen     TextGenerator
	store   *RedisCopyStore
	timeout time.Duration
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewCopywriter accepts a nil generator (always canned) and a nil store
// (no caching).
func NewCopywriter(gen TextGenerator, store *RedisCopyStore, timeout time.Duration, metrics *observability.Metrics, logger *zap.Logger) *Copywriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Copywriter{gen: gen, store: store, timeout: timeout, metrics: metrics, logger: logger}
}

// Recommendations returns severity-specific guidance.
func (c *Copywriter) Recommendations(ctx context.Context, req models.RecommendationRequest) (models.TherapyRecommendation, error) {
	if !req.Severity.Valid() {
		return models.TherapyRecommendation{}, apperrors.New(apperrors.KindInvalidInput,
			"severity must be minimal, moderate or severe")
	}
	text, err := c.generate(ctx, kindRecommendation, recommendationPrompt(req.Severity, req.Context))
	if err == nil {
		var rec models.TherapyRecommendation
		if err = json.Unmarshal([]byte(stripFence(text)), &rec); err == nil && rec.Acknowledgment != "" {
			rec.Severity = req.Severity
			rec.RecommendTherapist = req.Severity == models.SeveritySevere
			rec.Generated = true
			return rec, nil
		}
		if err == nil {
			err = errors.New("empty acknowledgment")
		}
	}
	c.fellBack(kindRecommendation, err)
	return cannedRecommendation(req.Severity), nil
}

// FollowUpTasks suggests homework after a completed session.
func (c *Copywriter) FollowUpTasks(ctx context.Context, s *models.Session) models.SessionSuggestions {
	out := models.SessionSuggestions{SessionID: s.ID}
	text, err := c.generate(ctx, kindFollowUp, followUpPrompt(s))
	if err == nil {
		var tasks []string
		if err = json.Unmarshal([]byte(stripFence(text)), &tasks); err == nil {
			tasks = compact(tasks)
			if len(tasks) > 0 {
				out.Tasks = tasks
				out.Generated = true
				return out
			}
			err = errors.New("no tasks")
		}
	}
	c.fellBack(kindFollowUp, err)
	out.Tasks = cannedFollowUps()
	return out
}

// ConfirmationMessage is the notification body for a confirmed session.
func (c *Copywriter) ConfirmationMessage(ctx context.Context, s *models.Session) string {
	text, err := c.generate(ctx, kindConfirmation, confirmationPrompt(s))
	if err == nil {
		if msg := strings.TrimSpace(stripFence(text)); msg != "" {
			return msg
		}
		err = errors.New("empty message")
	}
	c.fellBack(kindConfirmation, err)
	return cannedConfirmation(s)
}

func (c *Copywriter) generate(ctx context.Context, kind, prompt string) (string, error) {
	if c.store != nil {
		if text, ok, err := c.store.Get(ctx, kind, prompt); err == nil && ok {
			c.metrics.ObserveCopy(kind, "cache")
			return text, nil
		}
	}
	if c.gen == nil {
		return "", errors.New("no generator configured")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	text, err := c.gen.GenerateContent(ctx, prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%s: empty generation", kind)
	}
	c.metrics.ObserveCopy(kind, "model")
	if c.store != nil {
		if err := c.store.Set(ctx, kind, prompt, text); err != nil {
			c.logger.Debug("Copy cache write failed", zap.Error(err))
		}
	}
	return text, nil
}

func (c *Copywriter) fellBack(kind string, err error) {
	c.metrics.ObserveCopy(kind, "fallback")
	c.logger.Warn("Generated copy unavailable, using canned text", zap.String("kind", kind), zap.Error(err))
}

// stripFence removes a surrounding ``` or ```json block if present.
func stripFence(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.Index(text, "```json"); i >= 0 {
		text = text[i+len("```json"):]
	} else if i := strings.Index(text, "```"); i >= 0 {
		text = text[i+3:]
	} else {
		return text
	}
	if j := strings.Index(text, "```"); j >= 0 {
		text = text[:j]
	}
	return strings.TrimSpace(text)
}

func compact(items []string) []string {
	out := items[:0]
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}
