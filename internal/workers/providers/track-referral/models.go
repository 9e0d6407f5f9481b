// internal/workers/providers/track-referral/models.go
package trackreferral

type Input struct {
	UserID       string            `json:"userId"`
	ProviderName string            `json:"provider"`
	ProviderID   string            `json:"providerId,omitempty"`
	Category     string            `json:"category"`
	Action       string            `json:"action,omitempty"` // click, call, select, quote
	Website      string            `json:"website,omitempty"`
	ReferralURL  string            `json:"referralUrl,omitempty"`
	Phone        string            `json:"phone,omitempty"`
	Context      map[string]string `json:"context,omitempty"`
}

type Output struct {
	URL     string `json:"url"`
	ClickID string `json:"clickId"`
	Action  string `json:"action"`
	Phone   string `json:"phone,omitempty"`
}
