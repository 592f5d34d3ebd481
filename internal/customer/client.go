// Package customer checks customer existence against the customer service.
// The check is tolerant of unavailability: callers route unconfirmed
// customers into pending validation instead of rejecting the order.
package customer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"
)

type Status string

const (
	StatusConfirmed   Status = "CONFIRMED"
	StatusNotFound    Status = "NOT_FOUND"
	StatusUnavailable Status = "UNAVAILABLE"
)

// Verifier reports whether a customer exists. The error is diagnostic only
// and is non-nil exactly when the status is StatusUnavailable.
type Verifier interface {
	Verify(ctx context.Context, customerID string) (Status, error)
}

type HTTPVerifier struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[Status]
	cache   VerificationCache
	sfg     singleflight.Group // Prevents check stampede for one customer
}

// NewHTTPVerifier builds a verifier for the customer service at baseURL.
// cache may be nil.
func NewHTTPVerifier(baseURL string, cache VerificationCache) *HTTPVerifier {
	breaker := gobreaker.NewCircuitBreaker[Status](gobreaker.Settings{
		Name:    "customer-service",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &HTTPVerifier{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
		breaker: breaker,
		cache:   cache,
	}
}

func (v *HTTPVerifier) Verify(ctx context.Context, customerID string) (Status, error) {
	if v.cache != nil {
		status, err := v.cache.Get(ctx, customerID)
		if err == nil {
			return status, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			log.Printf("customer cache get error: %v", err) // log cache error but continue
		}
	}

	result, err, _ := v.sfg.Do(customerID, func() (interface{}, error) {
		return v.breaker.Execute(func() (Status, error) {
			return v.fetch(ctx, customerID)
		})
	})
	if err != nil {
		return StatusUnavailable, err
	}

	status := result.(Status)
	if status == StatusConfirmed && v.cache != nil {
		// only confirmed ids are cached; a missing customer may be created later
		go func() {
			if errSet := v.cache.Set(context.Background(), customerID, status); errSet != nil {
				log.Printf("customer cache set error: %v", errSet)
			}
		}()
	}
	return status, nil
}

func (v *HTTPVerifier) fetch(ctx context.Context, customerID string) (Status, error) {
	endpoint := fmt.Sprintf("%s/customers/%s", v.baseURL, url.PathEscape(customerID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return StatusUnavailable, fmt.Errorf("build customer request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return StatusUnavailable, fmt.Errorf("customer service call failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return StatusConfirmed, nil
	case http.StatusNotFound:
		// a definite answer, not a breaker failure
		return StatusNotFound, nil
	default:
		return StatusUnavailable, fmt.Errorf("customer service returned status %d", resp.StatusCode)
	}
}
