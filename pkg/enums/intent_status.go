package enums

// IntentStatus is the normalized payment-intent status vocabulary shared by
// both gateway adapters. Provider-specific statuses outside this set are
// carried through as IntentStatusOther with the raw value preserved alongside.
type IntentStatus string

const (
	IntentStatusSucceeded IntentStatus = "succeeded"
	IntentStatusCanceled  IntentStatus = "canceled"
	IntentStatusFailed    IntentStatus = "failed"
	IntentStatusOther     IntentStatus = "other"
)
