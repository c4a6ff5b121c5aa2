// Package httpapi receives SNS HTTP(S) push deliveries and feeds them to the
// ingest pipeline.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/simple-ingest/pkg/ingest"
)

// SNS caps message size at 256 KiB; the envelope adds a little on top.
const defaultMaxBodyBytes = 512 << 10

const messageTypeHeader = "X-Amz-Sns-Message-Type"

const (
	typeNotification             = "Notification"
	typeSubscriptionConfirmation = "SubscriptionConfirmation"
	typeUnsubscribeConfirmation  = "UnsubscribeConfirmation"
)

// envelope holds the SNS fields the server inspects before handing the raw
// body to the pipeline.
type envelope struct {
	Type         string `json:"Type"`
	MessageID    string `json:"MessageId"`
	TopicArn     string `json:"TopicArn"`
	SubscribeURL string `json:"SubscribeURL"`
}

// BatchSummary is the response body of a notification endpoint.
type BatchSummary struct {
	MessageID string   `json:"message_id"`
	Total     int      `json:"total"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Retryable int      `json:"retryable"`
	Errors    []string `json:"errors,omitempty"`
}

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// Server exposes the pipeline over HTTP.
type Server struct {
	pipeline     *ingest.Pipeline
	logger       *slog.Logger
	maxBodyBytes int64

	autoConfirm  bool
	confirmHosts []string
	client       *http.Client
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the server logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMaxBodyBytes caps the accepted request body size
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		s.maxBodyBytes = n
	}
}

// WithAutoConfirm makes the server visit the SubscribeURL of subscription
// confirmations whose host is one of hosts or a subdomain of one. With no
// hosts given, only amazonaws.com hosts are confirmed.
func WithAutoConfirm(client *http.Client, hosts ...string) Option {
	return func(s *Server) {
		s.autoConfirm = true
		s.client = client
		if len(hosts) > 0 {
			s.confirmHosts = hosts
		}
	}
}

// NewServer creates a server in front of pipeline.
func NewServer(pipeline *ingest.Pipeline, options ...Option) *Server {
	s := &Server{
		pipeline:     pipeline,
		maxBodyBytes: defaultMaxBodyBytes,
		confirmHosts: []string{".amazonaws.com"},
	}
	for _, option := range options {
		option(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.client == nil {
		s.client = &http.Client{Timeout: 10 * time.Second}
	}
	return s
}

// Routes returns the router for all endpoints
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(s.logger))
	r.Use(RecoveryMiddleware(s.logger))

	r.Get("/healthz", s.Healthz)
	r.Get("/healthz/ready", s.Ready)

	r.Route("/notifications", func(r chi.Router) {
		r.Use(RequestSizeLimitMiddleware(s.maxBodyBytes))
		r.Post("/changes", s.notificationHandler(s.pipeline.HandleChanges, true))
		r.Post("/metadata", s.notificationHandler(s.pipeline.HandleMetadata, false))
	})
	return r
}

func (s *Server) Healthz(w http.ResponseWriter, r *http.Request) {
	render.PlainText(w, r, http.StatusText(http.StatusOK))
}

// Ready reports whether the catalog answers a lookup.
func (s *Server) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	_, err := s.pipeline.Catalog().Get(ctx, "healthz/ready-probe")
	if err != nil && !errors.Is(err, ingest.ErrEntryNotFound) {
		s.logger.Error("Catalog not ready", "err", err)
		render.Status(r, http.StatusServiceUnavailable)
		render.PlainText(w, r, http.StatusText(http.StatusServiceUnavailable))
		return
	}
	render.PlainText(w, r, http.StatusText(http.StatusOK))
}

type batchFunc func(ctx context.Context, msgs []ingest.Message) *ingest.BatchResult

// notificationHandler adapts one SNS push delivery to fn. When retry is set,
// retryable failures answer 500 so SNS redelivers the notification.
func (s *Server) notificationHandler(fn batchFunc, retry bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			s.writeError(w, r, http.StatusRequestEntityTooLarge, "body_too_large", err.Error())
			return
		}

		var env envelope
		if err := json.Unmarshal(body, &env); err != nil {
			s.logger.Error("Failed to decode notification", "err", err)
			s.writeError(w, r, http.StatusBadRequest, "invalid_envelope", err.Error())
			return
		}
		msgType := r.Header.Get(messageTypeHeader)
		if msgType == "" {
			msgType = env.Type
		}

		switch msgType {
		case typeSubscriptionConfirmation:
			s.confirm(w, r, env)
			return
		case typeUnsubscribeConfirmation:
			s.logger.Info("Subscription removed", "topic_arn", env.TopicArn)
			w.WriteHeader(http.StatusNoContent)
			return
		case typeNotification, "":
		default:
			s.writeError(w, r, http.StatusBadRequest, "unsupported_type", fmt.Sprintf("unsupported message type %q", msgType))
			return
		}

		result := fn(r.Context(), []ingest.Message{{ID: env.MessageID, Body: string(body)}})
		summary := BatchSummary{
			MessageID: env.MessageID,
			Total:     result.Total,
			Succeeded: result.Succeeded,
			Failed:    len(result.Failures),
		}
		for _, f := range result.Failures {
			summary.Errors = append(summary.Errors, f.Err.Error())
		}
		if retry {
			summary.Retryable = len(result.RetryableIDs())
		}
		if summary.Retryable > 0 {
			render.Status(r, http.StatusInternalServerError)
		}
		render.JSON(w, r, summary)
	}
}

func (s *Server) confirm(w http.ResponseWriter, r *http.Request, env envelope) {
	s.logger.Info("Subscription confirmation received", "topic_arn", env.TopicArn, "subscribe_url", env.SubscribeURL)
	if !s.autoConfirm {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	u, err := url.Parse(env.SubscribeURL)
	if err != nil || !s.allowedConfirmHost(u.Hostname()) {
		s.logger.Warn("Refusing subscription confirmation", "subscribe_url", env.SubscribeURL)
		s.writeError(w, r, http.StatusBadRequest, "invalid_subscribe_url", "subscribe URL host is not allowed")
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, u.String(), nil)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid_subscribe_url", err.Error())
		return
	}
	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Error("Failed to confirm subscription", "topic_arn", env.TopicArn, "err", err)
		s.writeError(w, r, http.StatusBadGateway, "confirmation_failed", err.Error())
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		s.logger.Error("Subscription confirmation rejected", "topic_arn", env.TopicArn, "status", resp.StatusCode)
		s.writeError(w, r, http.StatusBadGateway, "confirmation_failed", resp.Status)
		return
	}
	s.logger.Info("Subscription confirmed", "topic_arn", env.TopicArn)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) allowedConfirmHost(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	for _, allowed := range s.confirmHosts {
		domain := strings.ToLower(strings.TrimPrefix(allowed, "."))
		if domain == "" {
			continue
		}
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Error: errorBody{Code: code, Message: message, RequestID: RequestIDFrom(r.Context())}})
}
