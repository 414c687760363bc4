package domain

// BulkOperationResult aggregates per-ticket outcomes of one bulk request.
type BulkOperationResult struct {
	SuccessCount int
	FailureCount int
	Errors       []string
}
