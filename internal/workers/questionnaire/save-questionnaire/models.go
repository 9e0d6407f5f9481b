// internal/workers/questionnaire/save-questionnaire/models.go
package savequestionnaire

import "ezrelo/internal/questionnaire"

type Input struct {
	UserID        string                      `json:"userId"`
	Questionnaire questionnaire.Questionnaire `json:"questionnaire"`
}

type Output struct {
	SavedAt    string                  `json:"questionnaireSavedAt"`
	Inventory  questionnaire.Inventory `json:"inventory"`
	Contact    questionnaire.Contact   `json:"contact"`
	HasContact bool                    `json:"hasContact"`
	// movers this questionnaire was already shared with
	QuotesRequested []string `json:"quotesRequested"`
}
