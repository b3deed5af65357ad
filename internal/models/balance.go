package models

import (
	"encoding/json"
	"time"
)

// Balance is the current point amount of one user. A user that was never
// written has a zero Balance with only UserID set.
type Balance struct {
	UserID    int64
	Amount    int64
	UpdatedAt time.Time
}

type balanceJSON struct {
	ID           int64 `json:"id"`
	Point        int64 `json:"point"`
	UpdateMillis int64 `json:"updateMillis"`
}

func (b Balance) MarshalJSON() ([]byte, error) {
	return json.Marshal(balanceJSON{
		ID:           b.UserID,
		Point:        b.Amount,
		UpdateMillis: toMillis(b.UpdatedAt),
	})
}

func (b *Balance) UnmarshalJSON(data []byte) error {
	var w balanceJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	b.UserID = w.ID
	b.Amount = w.Point
	b.UpdatedAt = fromMillis(w.UpdateMillis)
	return nil
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
