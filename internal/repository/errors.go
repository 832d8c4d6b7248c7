package repository

import "errors"

// Typed failures callers can branch on with errors.Is. Storage errors
// outside this set surface wrapped as generic failures.
var (
	// ErrInsufficientBalance is returned when a deduction or redemption
	// asks for more points than the user holds.
	ErrInsufficientBalance = errors.New("insufficient point balance")

	// ErrRewardUnavailable is returned when a reward is inactive or out
	// of stock at redemption time.
	ErrRewardUnavailable = errors.New("reward unavailable")
)
