package handler

// PaymentNotificationRequest represents an inbound gateway webhook payload
type PaymentNotificationRequest struct {
	ExternalTransactionID string `json:"external_transaction_id" binding:"required"`
	Amount                string `json:"amount" binding:"required"`
	PayerPhone            string `json:"payer_phone" binding:"required"`
	PayerName             string `json:"payer_name,omitempty"`
	RoutingKey            string `json:"routing_key" binding:"required"`
	ReceivedAt            string `json:"received_at,omitempty"`
}

// StatementRowRequest represents one row of a bank statement upload. Rows
// may lack an external transaction id and a routing key; the phone match
// carries the resolution.
type StatementRowRequest struct {
	ExternalTransactionID string `json:"external_transaction_id,omitempty"`
	Amount                string `json:"amount" binding:"required"`
	PayerPhone            string `json:"payer_phone" binding:"required"`
	PayerName             string `json:"payer_name,omitempty"`
	RoutingKey            string `json:"routing_key,omitempty"`
	ValueDate             string `json:"value_date,omitempty"`
}

// StatementUploadRequest represents a bank statement upload
type StatementUploadRequest struct {
	Rows []StatementRowRequest `json:"rows" binding:"required,min=1,dive"`
}

// PaymentResponse represents a payment event in API responses
type PaymentResponse struct {
	ID                    string `json:"id"`
	ExternalTransactionID string `json:"external_transaction_id,omitempty"`
	TenantID              string `json:"tenant_id,omitempty"`
	CustomerID            string `json:"customer_id,omitempty"`
	Amount                string `json:"amount"`
	PayerPhone            string `json:"payer_phone"`
	PayerName             string `json:"payer_name,omitempty"`
	Source                string `json:"source"`
	Status                string `json:"status"`
	Reason                string `json:"reason,omitempty"`
	UnappliedAmount       string `json:"unapplied_amount"`
	ReceivedAt            string `json:"received_at"`
	ProcessedAt           string `json:"processed_at,omitempty"`
}

// IngestResponse reports the outcome of recording one notification
type IngestResponse struct {
	Payment   PaymentResponse `json:"payment"`
	Duplicate bool            `json:"duplicate"`
	JobID     string          `json:"job_id,omitempty"`
}

// StatementRowResponse reports the outcome of one statement row
type StatementRowResponse struct {
	Row       int    `json:"row"`
	PaymentID string `json:"payment_id,omitempty"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Error     string `json:"error,omitempty"`
}

// StatementUploadResponse summarizes a statement upload
type StatementUploadResponse struct {
	Accepted   int                    `json:"accepted"`
	Duplicates int                    `json:"duplicates"`
	Rejected   int                    `json:"rejected"`
	Rows       []StatementRowResponse `json:"rows"`
}

// RematchRequest is an operator's suspense resolution
type RematchRequest struct {
	CustomerID string `json:"customer_id" binding:"required,uuid"`
}

// ManualLineRequest is one line of a manual journal entry request
type ManualLineRequest struct {
	AccountCode string `json:"account_code" binding:"required"`
	Debit       string `json:"debit,omitempty"`
	Credit      string `json:"credit,omitempty"`
	Memo        string `json:"memo,omitempty"`
}

// ManualEntryRequest represents a manual journal entry submission
type ManualEntryRequest struct {
	TenantID    string              `json:"tenant_id" binding:"required,uuid"`
	ReferenceID string              `json:"reference_id,omitempty"`
	Memo        string              `json:"memo,omitempty"`
	EntryDate   string              `json:"entry_date,omitempty"`
	Lines       []ManualLineRequest `json:"lines" binding:"required,min=2,dive"`
}

// BulkImportRequest represents a batch of journal entries migrated from an
// external system
type BulkImportRequest struct {
	Entries []ManualEntryRequest `json:"entries" binding:"required,min=1,dive"`
}

// BulkEntryRowResponse reports the outcome of one imported entry
type BulkEntryRowResponse struct {
	Row     int    `json:"row"`
	EntryID string `json:"entry_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// BulkImportResponse summarizes a bulk journal import
type BulkImportResponse struct {
	Posted   int                    `json:"posted"`
	Rejected int                    `json:"rejected"`
	Rows     []BulkEntryRowResponse `json:"rows"`
}

// JournalLineResponse represents one journal line in API responses
type JournalLineResponse struct {
	ID        string `json:"id"`
	AccountID string `json:"account_id"`
	Debit     string `json:"debit"`
	Credit    string `json:"credit"`
	Memo      string `json:"memo,omitempty"`
}

// JournalEntryResponse represents a journal entry in API responses
type JournalEntryResponse struct {
	ID            string                `json:"id"`
	TenantID      string                `json:"tenant_id"`
	ReferenceType string                `json:"reference_type"`
	ReferenceID   string                `json:"reference_id"`
	Memo          string                `json:"memo,omitempty"`
	EntryDate     string                `json:"entry_date"`
	PostedAt      string                `json:"posted_at"`
	Lines         []JournalLineResponse `json:"lines"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}
