package data

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/code-payments/presale-server/pkg/metrics"
)

const (
	estimatedProviderMetricsName = "data.estimated_provider"
)

var (
	maxEstimatedSignatures        = 1000000
	maxEstimatedSignaturesErrRate = 0.0001
)

var (
	ErrInvalidSignature = errors.New("invalid signature")
)

type EstimatedData interface {
	// Signatures
	// --------------------------------------------------------------------------------

	// TestAndAddRecentSignature records the signature and reports whether it
	// may have been recorded before. A signature is remembered for at least
	// the retention window. False positives are possible, false negatives
	// within the window are not.
	TestAndAddRecentSignature(ctx context.Context, signature []byte) (bool, error)
}

// EstimatedProvider keeps two generations of bloom filters. The current one
// takes writes, and both are consulted on reads, so an entry survives between
// one and two retention windows.
type EstimatedProvider struct {
	mu        sync.Mutex
	window    time.Duration
	rotatedAt time.Time
	current   *bloom.BloomFilter
	previous  *bloom.BloomFilter

	now func() time.Time
}

func NewEstimatedProvider(window time.Duration) (EstimatedData, error) {
	if window <= 0 {
		return nil, errors.New("retention window must be positive")
	}

	return &EstimatedProvider{
		window:    window,
		rotatedAt: time.Now(),
		current:   newSignatureFilter(),
		previous:  newSignatureFilter(),
		now:       time.Now,
	}, nil
}

// Signatures
// --------------------------------------------------------------------------------

func (p *EstimatedProvider) TestAndAddRecentSignature(ctx context.Context, signature []byte) (bool, error) {
	tracer := metrics.TraceMethodCall(ctx, estimatedProviderMetricsName, "TestAndAddRecentSignature")
	defer tracer.End()

	if len(signature) == 0 {
		return false, ErrInvalidSignature
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.maybeRotate()

	seen := p.current.TestAndAdd(signature)
	return seen || p.previous.Test(signature), nil
}

func (p *EstimatedProvider) maybeRotate() {
	now := p.now()
	elapsed := now.Sub(p.rotatedAt)
	if elapsed < p.window {
		return
	}

	if elapsed >= 2*p.window {
		p.previous = newSignatureFilter()
	} else {
		p.previous = p.current
	}
	p.current = newSignatureFilter()
	p.rotatedAt = now
}

func newSignatureFilter() *bloom.BloomFilter {
	return bloom.NewWithEstimates(uint(maxEstimatedSignatures), maxEstimatedSignaturesErrRate)
}
