package models

import (
	"encoding/json"
	"fmt"
	"time"
)

type TransactionKind string

const (
	KindCharge TransactionKind = "CHARGE"
	KindUse    TransactionKind = "USE"
)

func (k TransactionKind) Valid() bool {
	return k == KindCharge || k == KindUse
}

// TransactionRecord is one committed charge or use. Records are immutable
// once appended and ordered by SequenceID.
type TransactionRecord struct {
	SequenceID int64
	UserID     int64
	Amount     int64
	Kind       TransactionKind
	OccurredAt time.Time
}

// Signed returns the balance delta the record applied.
func (r TransactionRecord) Signed() int64 {
	if r.Kind == KindUse {
		return -r.Amount
	}
	return r.Amount
}

type transactionJSON struct {
	ID           int64           `json:"id"`
	UserID       int64           `json:"userId"`
	Amount       int64           `json:"amount"`
	Type         TransactionKind `json:"type"`
	UpdateMillis int64           `json:"updateMillis"`
}

func (r TransactionRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(transactionJSON{
		ID:           r.SequenceID,
		UserID:       r.UserID,
		Amount:       r.Amount,
		Type:         r.Kind,
		UpdateMillis: toMillis(r.OccurredAt),
	})
}

func (r *TransactionRecord) UnmarshalJSON(data []byte) error {
	var w transactionJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if !w.Type.Valid() {
		return fmt.Errorf("unknown transaction type %q", w.Type)
	}
	r.SequenceID = w.ID
	r.UserID = w.UserID
	r.Amount = w.Amount
	r.Kind = w.Type
	r.OccurredAt = fromMillis(w.UpdateMillis)
	return nil
}
