package intake

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/event-registration/internal/lock"
	"github.com/noah-isme/event-registration/internal/obs"
	"github.com/noah-isme/event-registration/internal/resilience"
)

var (
	// ErrSubmissionInProgress is returned when the same registration is already being submitted.
	ErrSubmissionInProgress = errors.New("intake: submission already in progress")
	// ErrInvalidSubmission is returned for submissions without a registration id.
	ErrInvalidSubmission = errors.New("intake: invalid submission")
	// ErrRejected is returned when the webhook answers with a non-success status.
	ErrRejected = errors.New("intake: submission rejected")
	// ErrNotConfigured is returned when no webhook URL is set.
	ErrNotConfigured = errors.New("intake: webhook url not configured")
)

// DefaultMessage is reported when the webhook acknowledges without a message.
const DefaultMessage = "Registration processed successfully"

const maxResponseBytes = 1 << 20

// Config controls the outbound webhook transport.
type Config struct {
	URL         string
	Timeout     time.Duration
	MaxAttempts int
	BaseBackoff time.Duration
	Breaker     *resilience.Breaker
	Transport   http.RoundTripper
	Guard       Guard
	Logger      zerolog.Logger
}

// Guard takes a short-lived exclusive hold on a registration id, extending
// the in-flight check across replicas. Optional.
type Guard interface {
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// Client posts registration summaries to the intake webhook.
type Client struct {
	url      string
	http     resilience.HTTPClient
	logger   zerolog.Logger
	inFlight sync.Map
	guard    Guard
	guardTTL time.Duration
}

// NewClient builds a client whose transport is traced with otelhttp and
// guarded by the configured breaker.
func NewClient(cfg Config) *Client {
	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	backoff := cfg.BaseBackoff
	if backoff <= 0 {
		backoff = time.Second
	}
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &Client{
		url:      strings.TrimSpace(cfg.URL),
		guard:    cfg.Guard,
		guardTTL: time.Duration(attempts)*(timeout+backoff) + time.Second,
		http: resilience.HTTPClient{
			Client:      &http.Client{Transport: otelhttp.NewTransport(transport)},
			Breaker:     cfg.Breaker,
			Target:      "intake",
			MaxAttempts: cfg.MaxAttempts,
			BaseBackoff: backoff,
			Jitter:      0.1,
			Timeout:     timeout,
		},
		logger: cfg.Logger,
	}
}

// Submit delivers sub and parses the acknowledgement. A second Submit for the
// same registration id while the first is running fails fast.
func (c *Client) Submit(ctx context.Context, sub Submission) (Result, error) {
	if strings.TrimSpace(sub.RegistrationID) == "" {
		return Result{}, ErrInvalidSubmission
	}
	if c.url == "" {
		return Result{}, ErrNotConfigured
	}
	if _, busy := c.inFlight.LoadOrStore(sub.RegistrationID, struct{}{}); busy {
		c.logger.Warn().Str("registration_id", sub.RegistrationID).Msg("intake submission already in progress")
		return Result{}, ErrSubmissionInProgress
	}
	defer c.inFlight.Delete(sub.RegistrationID)
	if c.guard != nil {
		release, err := c.guard.TryAcquire(ctx, "intake:inflight:"+sub.RegistrationID, c.guardTTL)
		switch {
		case errors.Is(err, lock.ErrHeld):
			c.logger.Warn().Str("registration_id", sub.RegistrationID).Msg("intake submission in progress on another replica")
			return Result{}, ErrSubmissionInProgress
		case err != nil:
			c.logger.Warn().Err(err).Msg("intake guard unavailable, continuing with local check")
		default:
			defer release()
		}
	}

	ctx, span := otel.Tracer("event-registration/intake").Start(ctx, "intake.submit")
	defer span.End()
	span.SetAttributes(
		attribute.String("registration.id", sub.RegistrationID),
		attribute.String("event.slug", sub.Event.Slug),
		attribute.Int("registration.participants", len(sub.Participants)),
	)

	start := time.Now()
	res, err := c.submit(ctx, sub)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Error().Err(err).Str("registration_id", sub.RegistrationID).Msg("intake submission failed")
	} else {
		c.logger.Info().Str("registration_id", sub.RegistrationID).Bool("has_link", res.Link != "").Msg("intake submission accepted")
	}
	obs.ObserveIntake(outcome, time.Since(start))
	return res, err
}

func (c *Client) submit(ctx context.Context, sub Submission) (Result, error) {
	body, err := json.Marshal(sub)
	if err != nil {
		return Result{}, fmt.Errorf("intake: encode submission: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("intake: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return Result{}, fmt.Errorf("intake: post: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Result{}, fmt.Errorf("intake: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn().Int("status", resp.StatusCode).Str("body", truncate(string(data), 256)).Msg("intake webhook rejected submission")
		return Result{}, fmt.Errorf("%w: %s", ErrRejected, resp.Status)
	}
	return ParseResponse(resp.Header.Get("Content-Type"), data), nil
}

// ParseResponse extracts the acknowledgement message and payment link. Bodies
// that are not JSON objects become the message verbatim.
func ParseResponse(contentType string, body []byte) Result {
	var payload struct {
		Message       string `json:"message"`
		Link          string `json:"link"`
		PaymentLink   string `json:"payment_link"`
		PagamentoLink string `json:"pagamento_link"`
	}
	trimmed := bytes.TrimSpace(body)
	mediaType, _, _ := mime.ParseMediaType(contentType)
	isJSON := mediaType == "application/json" || (len(trimmed) > 0 && trimmed[0] == '{')

	var res Result
	if isJSON && json.Unmarshal(trimmed, &payload) == nil {
		res.Message = strings.TrimSpace(payload.Message)
		res.Link = firstNonEmpty(payload.Link, payload.PaymentLink, payload.PagamentoLink)
	} else {
		res.Message = string(trimmed)
	}
	if res.Message == "" {
		res.Message = DefaultMessage
	}
	return res
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
