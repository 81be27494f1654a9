package models

import (
	"errors"
	"time"
)

var (
	ErrQRExpired       = errors.New("qr code expired")
	ErrQRUsed          = errors.New("qr code already used")
	ErrQRExhausted     = errors.New("qr code has no uses left")
	ErrActivityClosed  = errors.New("activity is not accepting scans")
	ErrAlreadyRecorded = errors.New("student already recorded for this activity")
)

// Redeem applies one scan by studentID to the code and returns the updated copy.
// The receiver is never modified.
func (q QRCode) Redeem(studentID string, now time.Time) (QRCode, error) {
	if q.ExpiredAt != nil && now.After(*q.ExpiredAt) {
		return q, ErrQRExpired
	}
	limit := q.MaxUses
	if q.Type == QRSingleUse || limit < 1 {
		limit = 1
	}
	if q.IsUsed || q.CurrentUses >= limit {
		if q.Type == QRSingleUse {
			return q, ErrQRUsed
		}
		return q, ErrQRExhausted
	}
	next := q
	at := now
	next.CurrentUses++
	next.UsedAt = &at
	next.IsUsed = next.CurrentUses >= limit
	if q.Type == QRSingleUse {
		id := studentID
		next.UsedBy = &id
	}
	return next, nil
}

func (q QRCode) RemainingUses() int {
	limit := q.MaxUses
	if q.Type == QRSingleUse || limit < 1 {
		limit = 1
	}
	if q.CurrentUses >= limit {
		return 0
	}
	return limit - q.CurrentUses
}

// Redeemable reports whether scans may currently be credited to the activity.
func (a Activity) Redeemable() error {
	if a.Status != StatusActive {
		return ErrActivityClosed
	}
	return nil
}
