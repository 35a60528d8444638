package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/walletledger/internal/infrastructure/metrics"
	"github.com/iho/walletledger/internal/usecase"
)

const (
	// IdempotencyKeyHeader is the header name for idempotency keys.
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyReplayHeader marks a replayed response.
	IdempotencyReplayHeader = "X-Idempotency-Replay"
)

// storedResponse is what is kept under an idempotency key once the first
// request finished.
type storedResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// IdempotencyMiddleware replays the first successful response of a POST
// request for every later request with the same key.
type IdempotencyMiddleware struct {
	store   usecase.IdempotencyStore
	ttl     time.Duration
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// NewIdempotencyMiddleware creates a new IdempotencyMiddleware.
func NewIdempotencyMiddleware(store usecase.IdempotencyStore, ttl time.Duration, logger zerolog.Logger, m *metrics.Metrics) *IdempotencyMiddleware {
	if ttl <= 0 {
		ttl = usecase.IdempotencyKeyTTL
	}
	if m == nil {
		m = metrics.New(nil)
	}
	return &IdempotencyMiddleware{store: store, ttl: ttl, logger: logger, metrics: m}
}

// Wrap wraps an http.Handler with idempotency checking.
func (m *IdempotencyMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only creations are replayed
		if r.Method != http.MethodPost {
			next.ServeHTTP(w, r)
			return
		}

		key := r.Header.Get(IdempotencyKeyHeader)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}
		actorID, _ := ActorFromContext(r.Context())
		scopedKey := actorID + ":" + r.URL.Path + ":" + key

		exists, cached, err := m.store.CheckAndSet(r.Context(), scopedKey, nil, m.ttl)
		if err != nil {
			m.logger.Error().Err(err).Str("key", key).Msg("idempotency check failed")
			writeMiddlewareError(w, http.StatusInternalServerError, "idempotency check failed")
			return
		}

		if exists {
			var stored storedResponse
			if jsonErr := json.Unmarshal(cached, &stored); jsonErr != nil || stored.Status == 0 {
				writeMiddlewareError(w, http.StatusConflict, "a request with this idempotency key is in progress")
				return
			}

			m.metrics.IdempotentReplays.Inc()
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set(IdempotencyReplayHeader, "true")
			w.WriteHeader(stored.Status)
			if string(stored.Body) != "null" {
				_, _ = w.Write(stored.Body)
			}
			return
		}

		// Capture response
		recorder := &responseRecorder{
			ResponseWriter: w,
			body:           &bytes.Buffer{},
			statusCode:     http.StatusOK,
		}
		// The key is released unless a response was stored, including when the
		// handler panics and Recovery answers further up the chain.
		stored := false
		defer func() {
			if stored {
				return
			}
			if err := m.store.Delete(context.WithoutCancel(r.Context()), scopedKey); err != nil {
				m.logger.Warn().Err(err).Str("key", key).Msg("failed to release idempotency key")
			}
		}()

		next.ServeHTTP(recorder, r)

		if recorder.statusCode < 200 || recorder.statusCode >= 300 {
			return
		}

		var body json.RawMessage
		if recorder.body.Len() > 0 {
			body = recorder.body.Bytes()
		}
		payload, err := json.Marshal(storedResponse{Status: recorder.statusCode, Body: body})
		if err == nil {
			err = m.store.Update(r.Context(), scopedKey, payload, m.ttl)
		}
		if err != nil {
			m.logger.Warn().Err(err).Str("key", key).Msg("failed to store idempotent response")
			return
		}
		stored = true
	})
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func writeMiddlewareError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
