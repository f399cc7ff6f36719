package outbox

// EmailPayload is the serialized content of an email outbox row. The
// delivery worker renders the template named on the row with these fields.
type EmailPayload struct {
	To          string `json:"to"`
	ToName      string `json:"toName"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
	QuoteRef    string `json:"quoteRef,omitempty"`
	TotalAmount string `json:"totalAmount,omitempty"`
}
