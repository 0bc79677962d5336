// Package otp issues and checks the one-time codes that gate customer registration.
package otp

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"coffeespot/internal/domain"
	"github.com/rs/zerolog"
)

const (
	codeTTL = 5 * time.Minute
	// verifiedTTL bounds how long a verified phone may be used to register.
	verifiedTTL = 15 * time.Minute
	// maxFailures wrong guesses burn the pending code.
	maxFailures = 5
)

type Service struct {
	codes  *store
	logger zerolog.Logger
}

func New(logger zerolog.Logger) *Service {
	return newWithClock(logger, time.Now)
}

func newWithClock(logger zerolog.Logger, now func() time.Time) *Service {
	return &Service{codes: newStore(now), logger: logger.With().Str("service", "otp").Logger()}
}

// Send generates a code for phone, replacing any pending one. Delivery is not
// implemented; the code is logged at debug level.
func (s *Service) Send(_ context.Context, phone string) (string, error) {
	const op = "otp.send"
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", domain.Invalid(op, "Phone number is required")
	}
	code, err := s.codes.Issue(phone, codeTTL)
	if err != nil {
		return "", domain.Internal(op, err)
	}
	s.logger.Debug().Str("phone", phone).Str("otp", code).Msg("otp issued")
	return code, nil
}

// Verify checks the code and marks the phone verified for registration.
func (s *Service) Verify(_ context.Context, phone, code string) error {
	const op = "otp.verify"
	phone = strings.TrimSpace(phone)
	code = strings.TrimSpace(code)
	if phone == "" || code == "" {
		return domain.Invalid(op, "Phone number and OTP are required")
	}
	e, ok := s.codes.Get(phone)
	if !ok {
		return domain.Invalid(op, "OTP expired or not found")
	}
	if subtle.ConstantTimeCompare([]byte(e.Code), []byte(code)) != 1 {
		if s.codes.RecordFailure(phone, e.Code, maxFailures) {
			s.logger.Warn().Str("phone", phone).Msg("otp invalidated after failed attempts")
			return domain.Invalid(op, "Too many failed attempts, request a new OTP")
		}
		return domain.Invalid(op, "Invalid OTP")
	}
	s.codes.MarkVerified(phone, verifiedTTL)
	return nil
}

// ConsumeVerified reports whether phone passed verification and forgets it, so
// one verification admits one registration.
func (s *Service) ConsumeVerified(_ context.Context, phone string) bool {
	phone = strings.TrimSpace(phone)
	e, ok := s.codes.Get(phone)
	if !ok || !e.Verified {
		return false
	}
	s.codes.Delete(phone)
	return true
}
