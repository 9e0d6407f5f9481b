// internal/workers/questionnaire/send-questionnaire-email/models.go
package sendquestionnaireemail

type Input struct {
	UserID string `json:"userId"`
	// Email overrides the contact address from the questionnaire.
	Email string `json:"email,omitempty"`
}

const (
	StatusSent     = "sent"
	StatusDisabled = "disabled"
)

type Output struct {
	Status    string `json:"emailStatus"`
	MessageID string `json:"emailMessageId,omitempty"`
	Recipient string `json:"emailRecipient"`
	Summary   string `json:"questionnaireSummary"`
}
