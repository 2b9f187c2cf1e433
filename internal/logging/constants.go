package logging

// Standardized field names for structured logging.
const (
	FieldComponent      = "component"
	FieldOrganizationID = "organization_id"
	FieldTransactionID  = "transaction_id"
	FieldSuggestionID   = "suggestion_id"
	FieldAccountID      = "account_id"
	FieldAccountRef     = "account_ref"
	FieldExternalID     = "external_id"
	FieldHash           = "canonical_hash"
	FieldType           = "type"
	FieldCategory       = "category"
	FieldConfidence     = "confidence"
	FieldStrategy       = "strategy"
	FieldOutcome        = "outcome"
	FieldReason         = "reason"
	FieldSource         = "source"
	FieldOperation      = "operation"
	FieldStatus         = "status"
	FieldError          = "error"
	FieldDuration       = "duration_ms"
	FieldCount          = "count"
	FieldFile           = "file_path"
	FieldRequestID      = "request_id"
)
