// internal/workers/questionnaire/share-with-movers/models.go
package sharewithmovers

import "ezrelo/internal/providers"

type Input struct {
	UserID string               `json:"userId"`
	Movers []providers.Provider `json:"movers"`
	// NotifySMS texts the user a confirmation at Phone, or at the
	// questionnaire contact phone.
	NotifySMS bool   `json:"notifySms,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

type shareResponse struct {
	ShareID  string `json:"shareId"`
	Accepted int    `json:"accepted"`
}

const (
	SMSStatusSent     = "sent"
	SMSStatusSkipped  = "skipped"
	SMSStatusDisabled = "disabled"
	SMSStatusFailed   = "failed"
)

type Output struct {
	ShareID         string   `json:"shareId,omitempty"`
	SharedWith      []string `json:"sharedWith"`
	Accepted        int      `json:"acceptedCount"`
	QuotesRequested []string `json:"quotesRequested"`
	ClickIDs        []string `json:"clickIds"`
	SMSStatus       string   `json:"smsStatus"`
	SMSMessageID    string   `json:"smsMessageId,omitempty"`
}
