package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tornwatch/tornwatch/internal/config"
	"github.com/tornwatch/tornwatch/internal/core"
	"github.com/tornwatch/tornwatch/internal/core/torn"
)

// maxDetailBytes bounds the body or error detail persisted per call.
const maxDetailBytes = 500

// actionAPIRequest tags audited API interactions in the actions table.
const actionAPIRequest = "api_request"

// Auditor is the slice of the store the client needs: one durable write per
// terminal outcome, with an optional credential disable in the same
// transaction.
type Auditor interface {
	RecordCallOutcome(ctx context.Context, rec *core.CallRecord, disable *core.CredentialDisable) error
}

// Client performs one logical API call behind the rate limiter, the retry
// policy, and the credential guard, and audits every terminal outcome.
type Client struct {
	http       *resty.Client
	credential *core.Credential
	limiter    *Limiter
	retry      RetryPolicy
	guard      *CredentialGuard
	audit      Auditor
	log        *zap.Logger

	Clock func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewClient wires the protection layers around a resty HTTP client with a
// bounded per-attempt timeout.
func NewClient(cfg config.APIConfig, cred *core.Credential, limiter *Limiter, guard *CredentialGuard, audit Auditor, log *zap.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", "tornwatch")

	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		http:       httpClient,
		credential: cred,
		limiter:    limiter,
		retry: RetryPolicy{
			MaxAttempts: cfg.MaxAttempts,
			Base:        cfg.BackoffBase,
			Cap:         cfg.BackoffCap,
		},
		guard: guard,
		audit: audit,
		log:   log,
	}
}

type attemptResult struct {
	status       int
	body         []byte
	latency      time.Duration
	transportErr error
}

// Call runs the full state machine for one logical request: credential check,
// budget acquisition, attempt, classification, retry. It returns the raw
// response body on success or a typed *Error; it never panics through and
// never surfaces a transport error directly. Context cancellation aborts
// before the audit boundary, leaving no partial writes.
func (c *Client) Call(ctx context.Context, req torn.Request) (json.RawMessage, error) {
	callID := uuid.New().String()

	if c.guard.IsDisabled(c.credential.ID) {
		apiErr := &Error{Kind: KindCredentialDisabled, Detail: fmt.Sprintf("credential %s is disabled", c.credential.ID)}
		rec := c.newRecord(req, callID, core.CallResult{
			Status: core.CallFailed,
			Detail: string(KindCredentialDisabled),
		})
		if err := c.audit.RecordCallOutcome(ctx, rec, nil); err != nil {
			return nil, c.storeFailure(err)
		}
		c.log.Warn("call refused, credential disabled",
			zap.String("call_id", callID),
			zap.String("credential_id", c.credential.ID),
			zap.String("path", req.Path()))
		return nil, apiErr
	}

	started := c.now()
	attempt := 0
	for {
		attempt++
		if err := c.limiter.Acquire(ctx); err != nil {
			return nil, err
		}

		ar := c.attempt(ctx, req)
		fields := []zap.Field{
			zap.String("call_id", callID),
			zap.String("path", req.Path()),
			zap.Int("attempt", attempt),
			zap.Int("status", ar.status),
			zap.Duration("latency", ar.latency),
		}
		if ar.transportErr != nil {
			fields = append(fields, zap.String("error", torn.RedactURL(ar.transportErr.Error())))
		}
		c.log.Info("api attempt", fields...)

		body, class, detail := c.evaluate(ar)
		if class == classSuccess {
			c.guard.RecordOutcome(c.credential.ID, core.OutcomeSuccess)
			rec := c.newRecord(req, callID, core.CallResult{
				Status:     core.CallSucceeded,
				StatusCode: ar.status,
				Attempts:   attempt,
				LatencyMS:  c.now().Sub(started).Milliseconds(),
			})
			if err := c.audit.RecordCallOutcome(ctx, rec, nil); err != nil {
				return nil, c.storeFailure(err)
			}
			return body, nil
		}

		switch class {
		case ClassAuth:
			var disable *core.CredentialDisable
			if disabledAt := c.guard.RecordOutcome(c.credential.ID, core.OutcomeAuthFailure); disabledAt != nil {
				disable = &core.CredentialDisable{CredentialID: c.credential.ID, At: *disabledAt}
				c.log.Warn("credential disabled after repeated auth failures",
					zap.String("credential_id", c.credential.ID),
					zap.Time("disabled_at", *disabledAt))
			}
			rec := c.failureRecord(req, callID, ar, attempt, started, detail)
			if err := c.audit.RecordCallOutcome(ctx, rec, disable); err != nil {
				return nil, c.storeFailure(err)
			}
			return nil, &Error{Kind: KindAuth, StatusCode: ar.status, Detail: detail}

		case ClassPermanent:
			c.guard.RecordOutcome(c.credential.ID, core.OutcomeFailure)
			rec := c.failureRecord(req, callID, ar, attempt, started, detail)
			if err := c.audit.RecordCallOutcome(ctx, rec, nil); err != nil {
				return nil, c.storeFailure(err)
			}
			return nil, &Error{Kind: KindPermanent, StatusCode: ar.status, Detail: detail}

		default:
			c.guard.RecordOutcome(c.credential.ID, core.OutcomeFailure)
			if decision := c.retry.Next(attempt, class); decision.Retry {
				c.log.Info("retrying transient failure",
					zap.String("call_id", callID),
					zap.Int("attempt", attempt),
					zap.Duration("backoff", decision.Delay))
				if err := c.sleep(ctx, decision.Delay); err != nil {
					return nil, err
				}
				continue
			}
			rec := c.failureRecord(req, callID, ar, attempt, started, detail)
			if err := c.audit.RecordCallOutcome(ctx, rec, nil); err != nil {
				return nil, c.storeFailure(err)
			}
			return nil, &Error{Kind: KindTransientExhausted, StatusCode: ar.status, Detail: detail}
		}
	}
}

func (c *Client) attempt(ctx context.Context, req torn.Request) attemptResult {
	start := c.now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(req.Query(c.credential.Key)).
		Get(req.Path())

	ar := attemptResult{latency: c.now().Sub(start)}
	if err != nil {
		ar.transportErr = err
		return ar
	}

	ar.status = resp.StatusCode()
	ar.body = resp.Body()
	return ar
}

// classSuccess is internal to evaluate; exported Class values only cover
// failures.
const classSuccess Class = -1

func (c *Client) evaluate(ar attemptResult) (json.RawMessage, Class, string) {
	if ar.transportErr != nil {
		// Transport errors can embed the request URL, key included.
		return nil, ClassTransient, truncateDetail(torn.RedactURL(ar.transportErr.Error()))
	}

	if ar.status >= 200 && ar.status < 300 {
		if !json.Valid(ar.body) {
			return nil, ClassPermanent, "malformed response body"
		}
		if apiErr := torn.DecodeError(ar.body); apiErr != nil {
			detail := truncateDetail(fmt.Sprintf("api error %d: %s", apiErr.Code, apiErr.Message))
			if apiErr.IsAuth() {
				return nil, ClassAuth, detail
			}
			// Non-auth in-band codes are terminal, including Torn's own
			// throttle code 5; only HTTP 429 and 5xx count as transient.
			return nil, ClassPermanent, detail
		}
		return ar.body, classSuccess, ""
	}

	class := ClassifyHTTP(ar.status, nil)
	return nil, class, truncateDetail(fmt.Sprintf("http %d: %s", ar.status, ar.body))
}

func (c *Client) newRecord(req torn.Request, callID string, result core.CallResult) *core.CallRecord {
	return &core.CallRecord{
		CallID:     callID,
		Timestamp:  c.now(),
		ActionType: actionAPIRequest,
		Payload:    req.Describe(),
		Result:     result,
	}
}

func (c *Client) failureRecord(req torn.Request, callID string, ar attemptResult, attempts int, started time.Time, detail string) *core.CallRecord {
	return c.newRecord(req, callID, core.CallResult{
		Status:     core.CallFailed,
		StatusCode: ar.status,
		Attempts:   attempts,
		Detail:     detail,
		LatencyMS:  c.now().Sub(started).Milliseconds(),
	})
}

func (c *Client) storeFailure(err error) error {
	c.log.Error("audit write failed", zap.Error(err))
	return &Error{Kind: KindStoreWrite, Detail: err.Error()}
}

func (c *Client) now() time.Time {
	if c.Clock != nil {
		return c.Clock()
	}
	return time.Now()
}

func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	if c.Sleep != nil {
		return c.Sleep(ctx, d)
	}
	return sleepContext(ctx, d)
}

func truncateDetail(s string) string {
	if len(s) > maxDetailBytes {
		return s[:maxDetailBytes]
	}
	return s
}
