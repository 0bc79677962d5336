package token

import (
	"context"
	"time"
)

// Revocation marks a token id as no longer valid before its expiry.
type Revocation struct {
	TokenID   string
	Subject   string
	ExpiresAt time.Time
	RevokedAt time.Time
}

// Repository is the logout deny-list.
type Repository interface {
	Revoke(ctx context.Context, rev Revocation) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	// PurgeExpired drops entries whose token would have expired anyway.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
