package entities

// Intent classifies one inbound message.
type Intent string

const (
	IntentInvoiceUpdate   Intent = "invoice_update"
	IntentFAQQuery        Intent = "faq_query"
	IntentCurrencyConvert Intent = "currency_convert"
	IntentReset           Intent = "reset"
	IntentUnknown         Intent = "unknown"
)
