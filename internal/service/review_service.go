package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"playaway/internal/apperr"
	"playaway/internal/config"
	"playaway/internal/ids"
	"playaway/internal/models"
	"playaway/internal/repository"
	"playaway/internal/security"
)

type TokenStore interface {
	Create(ctx context.Context, token models.ReviewToken) error
	FindByHash(ctx context.Context, hash []byte) (models.ReviewToken, error)
	Consume(ctx context.Context, hash []byte, review models.Review) (models.Review, error)
	DeleteExpiredUnused(ctx context.Context, now time.Time) (int64, error)
}

// IssuedToken carries the plaintext secret out of Issue. This is the
// only place the plaintext exists; it goes into the invite email URL
// and is never stored or logged.
type IssuedToken struct {
	Token     models.ReviewToken
	Plaintext string
	URL       string
}

type ReviewDraft struct {
	Rating int
	Body   string
}

// ReviewService issues, validates and consumes single-use review
// tokens.
type ReviewService struct {
	tokens  TokenStore
	ttl     time.Duration
	urlBase string
	log     zerolog.Logger
	now     func() time.Time
}

func NewReviewService(tokens TokenStore, cfg config.SecurityConfig, log zerolog.Logger) *ReviewService {
	return &ReviewService{
		tokens:  tokens,
		ttl:     cfg.ReviewTokenTTL,
		urlBase: strings.TrimSuffix(cfg.ReviewURLBase, "/"),
		log:     log,
		now:     time.Now,
	}
}

// Issue mints a fresh token for the (event, reviewer, target) triple.
// Multiple outstanding tokens per triple may coexist; each is
// independently valid until first use or expiry.
func (s *ReviewService) Issue(ctx context.Context, eventID string, reviewerClubID string, targetClubID string) (IssuedToken, error) {
	if eventID == "" || reviewerClubID == "" || targetClubID == "" {
		return IssuedToken{}, apperr.New(apperr.KindValidation, "event, reviewer club and target club are required")
	}

	plaintext, hash, err := security.GenerateOpaqueToken(32)
	if err != nil {
		return IssuedToken{}, err
	}

	token := models.ReviewToken{
		ID:             ids.New(),
		TokenHash:      hash,
		EventID:        eventID,
		ReviewerClubID: reviewerClubID,
		TargetClubID:   targetClubID,
		ExpiresAt:      s.now().Add(s.ttl),
	}

	if err := s.tokens.Create(ctx, token); err != nil {
		return IssuedToken{}, err
	}

	return IssuedToken{
		Token:     token,
		Plaintext: plaintext,
		URL:       fmt.Sprintf("%s/%s", s.urlBase, plaintext),
	}, nil
}

// Validate classifies a redeemed-or-not, expired-or-not token without
// consuming it, so the reviewer sees what they are reviewing before
// committing.
func (s *ReviewService) Validate(ctx context.Context, plaintext string) (models.ReviewToken, error) {
	token, err := s.tokens.FindByHash(ctx, security.HashOpaqueToken(plaintext))
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return models.ReviewToken{}, apperr.New(apperr.KindInvalidToken, "review token not recognised")
		}
		return models.ReviewToken{}, err
	}

	if token.Used || token.ReviewID != nil {
		return models.ReviewToken{}, apperr.New(apperr.KindAlreadyUsed, "review token already used")
	}
	if s.now().After(token.ExpiresAt) {
		return models.ReviewToken{}, apperr.New(apperr.KindExpired, "review token expired")
	}

	return token, nil
}

// Consume redeems the token and writes the review in one atomic step.
// A caller that raced a successful Validate can still lose here and
// must handle AlreadyUsed.
func (s *ReviewService) Consume(ctx context.Context, plaintext string, draft ReviewDraft) (models.Review, error) {
	if draft.Rating < 1 || draft.Rating > 5 {
		return models.Review{}, apperr.New(apperr.KindValidation, "rating must be between 1 and 5")
	}

	review := models.Review{
		ID:     ids.New(),
		Rating: draft.Rating,
		Body:   strings.TrimSpace(draft.Body),
	}

	created, err := s.tokens.Consume(ctx, security.HashOpaqueToken(plaintext), review)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrTokenNotFound):
			return models.Review{}, apperr.New(apperr.KindInvalidToken, "review token not recognised")
		case errors.Is(err, repository.ErrTokenUsed):
			return models.Review{}, apperr.New(apperr.KindAlreadyUsed, "review token already used")
		case errors.Is(err, repository.ErrTokenExpired):
			return models.Review{}, apperr.New(apperr.KindExpired, "review token expired")
		}
		return models.Review{}, err
	}
	return created, nil
}

// SweepExpired purges expired unused tokens. Hygiene only; expiry is
// already enforced at validation time.
func (s *ReviewService) SweepExpired(ctx context.Context) (int64, error) {
	removed, err := s.tokens.DeleteExpiredUnused(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.log.Info().Int64("removed", removed).Msg("swept expired review tokens")
	}
	return removed, nil
}
