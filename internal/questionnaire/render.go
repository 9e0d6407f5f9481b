package questionnaire

import (
	"bytes"
	"fmt"
	"text/template"
)

var summaryTemplate = template.Must(template.New("summary").Parse(`Moving questionnaire summary
{{if .Contact.Name}}Name: {{.Contact.Name}}
{{end}}From: {{or .FromLocation "not provided"}}
To: {{or .ToLocation "not provided"}}
{{if .MoveDate}}Move date: {{.MoveDate}}
{{end}}
Inventory ({{.Inventory.TotalItems}} items)
{{range .Inventory.Rooms}}- {{.Room}}: {{.Quantity}}
{{else}}No items listed.
{{end}}`))

// RenderSummary renders the plain-text summary used for email.
func RenderSummary(req QuoteRequest) (string, error) {
	var buf bytes.Buffer
	if err := summaryTemplate.Execute(&buf, req); err != nil {
		return "", fmt.Errorf("render questionnaire summary: %w", err)
	}
	return buf.String(), nil
}
