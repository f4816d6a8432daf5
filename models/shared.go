package models

// SettleWeekPayload is the task payload that asks the ledger to settle the
// in-flight week of a recurring transaction.
type SettleWeekPayload struct {
	TxID string `json:"txId"`
}
