package types

const (
	// DefaultMaxAgeSeconds is the freshness window of DefaultPolicy.
	DefaultMaxAgeSeconds uint64 = 60

	// DefaultMaxConfidenceRatioBps caps confidence at 2% of price.
	DefaultMaxConfidenceRatioBps uint64 = 200

	// MaxConfidenceRatioBpsLimit is the largest cap a policy may configure (1000x price).
	MaxConfidenceRatioBpsLimit uint64 = 10_000_000
)

// Policy is the immutable acceptance configuration for one feed.
type Policy struct {
	ExpectedFeed          FeedID
	MaxAgeSeconds         uint64
	MaxConfidenceRatioBps uint64
	MinVerification       VerificationLevel

	// Guards run after the built-in non-zero and confidence-ratio guards.
	Guards []Guard
}

// DefaultPolicy returns the default policy for feed.
func DefaultPolicy(feed FeedID) Policy {
	return Policy{
		ExpectedFeed:          feed,
		MaxAgeSeconds:         DefaultMaxAgeSeconds,
		MaxConfidenceRatioBps: DefaultMaxConfidenceRatioBps,
		MinVerification:       VerificationFull,
	}
}

// NewPolicy resolves feedHex once and builds a policy requiring full verification.
func NewPolicy(feedHex string, maxAgeSeconds, maxConfidenceRatioBps uint64, guards ...Guard) (Policy, error) {
	feed, err := ParseFeedID(feedHex)
	if err != nil {
		return Policy{}, err
	}

	p := Policy{
		ExpectedFeed:          feed,
		MaxAgeSeconds:         maxAgeSeconds,
		MaxConfidenceRatioBps: maxConfidenceRatioBps,
		MinVerification:       VerificationFull,
		Guards:                guards,
	}
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// Validate ensures the policy is well-formed.
func (p Policy) Validate() error {
	if p.ExpectedFeed.IsZero() {
		return ErrInvalidPolicy.Wrap("expected feed cannot be zero")
	}
	if p.MaxConfidenceRatioBps > MaxConfidenceRatioBpsLimit {
		return ErrInvalidPolicy.Wrapf("max confidence ratio %d bps exceeds limit %d", p.MaxConfidenceRatioBps, MaxConfidenceRatioBpsLimit)
	}
	for i, g := range p.Guards {
		if g == nil {
			return ErrInvalidPolicy.Wrapf("guard %d is nil", i)
		}
	}
	return nil
}

// AcceptanceGuards returns the ordered guard chain: non-zero, confidence
// ratio, then any application guards.
func (p Policy) AcceptanceGuards() []Guard {
	guards := make([]Guard, 0, 2+len(p.Guards))
	guards = append(guards, NonZeroGuard{}, ConfidenceRatioGuard{MaxBps: p.MaxConfidenceRatioBps})
	return append(guards, p.Guards...)
}
