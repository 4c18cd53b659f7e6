package shared

// ItemFailure describes one failed item of a batch operation
type ItemFailure struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

// BatchReport is the structured outcome of a batch operation where a subset may fail
type BatchReport struct {
	Succeeded []int64       `json:"succeeded"`
	Failed    []ItemFailure `json:"failed"`
}

// NewBatchReport creates an empty report with non-nil slices
func NewBatchReport() *BatchReport {
	return &BatchReport{
		Succeeded: make([]int64, 0),
		Failed:    make([]ItemFailure, 0),
	}
}

// Fail records a failed item
func (r *BatchReport) Fail(id int64, err error) {
	r.Failed = append(r.Failed, ItemFailure{ID: id, Message: err.Error()})
}

// Succeed records a succeeded item
func (r *BatchReport) Succeed(id int64) {
	r.Succeeded = append(r.Succeeded, id)
}

// Partial reports whether some items failed while others succeeded
func (r *BatchReport) Partial() bool {
	return len(r.Failed) > 0 && len(r.Succeeded) > 0
}
