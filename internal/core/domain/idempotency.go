package domain

import (
	"time"

	"github.com/google/uuid"
)

// IdempotencyLog is the durable record of a completed ledger operation keyed
// by its client reference, used to replay the original response on retries.
type IdempotencyLog struct {
	Key           string    `json:"key"`
	TransactionID uuid.UUID `json:"transaction_id"`
	ResponseJSON  []byte    `json:"response_json"`
	CreatedAt     time.Time `json:"created_at"`
}
