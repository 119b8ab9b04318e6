package domain

// OperationResult is the outcome of one (window, data type) import operation.
// Count fields are only set for successful operations; Error only for failed ones.
type OperationResult struct {
	Success           bool   `json:"success"`
	ExportID          string `json:"export_id"`
	DataType          string `json:"data_type"`
	RecordsFound      *int   `json:"records_found,omitempty"`
	RecordsInserted   *int   `json:"records_inserted,omitempty"`
	DuplicatesSkipped *int   `json:"duplicates_skipped,omitempty"`
	Duration          string `json:"duration,omitempty"`
	JSONFile          string `json:"json_file,omitempty"`
	Error             string `json:"error,omitempty"`
	Attempts          int    `json:"attempts"`

	MonthName       string `json:"month_name"`
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date"`
	OperationNumber int    `json:"operation_number"`
	Timestamp       string `json:"timestamp"`
}

// Found returns RecordsFound or 0 when unset.
func (r OperationResult) Found() int { return deref(r.RecordsFound) }

// Inserted returns RecordsInserted or 0 when unset.
func (r OperationResult) Inserted() int { return deref(r.RecordsInserted) }

// Duplicates returns DuplicatesSkipped or 0 when unset.
func (r OperationResult) Duplicates() int { return deref(r.DuplicatesSkipped) }

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
