package claimRepo

import "context"

// ClaimStore hands out one claim per intake time per calendar day.
type ClaimStore interface {
	// Claim atomically takes the claim for (intakeTimeID, day). It reports
	// false when the claim was already held.
	Claim(ctx context.Context, intakeTimeID, day string) (bool, error)
	// Release drops a claim whose reminder was never raised.
	Release(ctx context.Context, intakeTimeID, day string) error
}
