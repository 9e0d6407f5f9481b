// cmd/tools/worker-generator/main.go
package main

import (
	"bytes"
	"flag"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"time"

	"ezrelo/pkg/registry"
)

// WorkerData holds data for templates
type WorkerData struct {
	Name         string
	PackageName  string
	TaskType     string
	Category     string
	Description  string
	Timeout      string
	InputFields  []Field
	OutputFields []Field
	Required     []Field
}

// Field is one generated struct field.
type Field struct {
	GoName   string
	GoType   string
	JSONName string
}

// parseSchema extracts properties from a JSON schema object
func parseSchema(schema map[string]interface{}) map[string]interface{} {
	if props, ok := schema["properties"].(map[string]interface{}); ok {
		return props
	}
	return map[string]interface{}{}
}

func requiredSet(schema map[string]interface{}) map[string]bool {
	out := map[string]bool{}
	list, _ := schema["required"].([]interface{})
	for _, v := range list {
		if s, ok := v.(string); ok {
			out[s] = true
		}
	}
	return out
}

// goTypeFromJSONType maps JSON schema types to Go types
func goTypeFromJSONType(jsonType interface{}) string {
	switch jsonType {
	case "string":
		return "string"
	case "integer":
		return "int"
	case "number":
		return "float64"
	case "boolean":
		return "bool"
	case "object":
		return "map[string]interface{}"
	case "array":
		return "[]interface{}"
	default:
		return "interface{}"
	}
}

// goName turns a camelCase JSON property into an exported Go identifier.
func goName(prop string) string {
	if prop == "" {
		return prop
	}
	name := strings.ToUpper(prop[:1]) + prop[1:]
	if strings.HasSuffix(name, "Id") {
		name = strings.TrimSuffix(name, "Id") + "ID"
	}
	if strings.HasSuffix(name, "Ids") {
		name = strings.TrimSuffix(name, "Ids") + "IDs"
	}
	return name
}

// schemaFields returns the schema's properties as fields in name order.
func schemaFields(schema map[string]interface{}) []Field {
	props := parseSchema(schema)
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]Field, 0, len(names))
	for _, name := range names {
		details, _ := props[name].(map[string]interface{})
		fields = append(fields, Field{
			GoName:   goName(name),
			GoType:   goTypeFromJSONType(details["type"]),
			JSONName: name,
		})
	}
	return fields
}

func newWorkerData(a *registry.Activity) WorkerData {
	data := WorkerData{
		Name:         a.DisplayName,
		PackageName:  strings.ReplaceAll(a.ID, "-", ""),
		TaskType:     a.TaskType,
		Category:     a.Category,
		Description:  a.Description,
		Timeout:      "10 * time.Second",
		InputFields:  schemaFields(a.InputSchema),
		OutputFields: schemaFields(a.OutputSchema),
	}
	if d, err := time.ParseDuration(a.Timeout); err == nil && d > 0 {
		data.Timeout = fmt.Sprintf("%d * time.Millisecond", d.Milliseconds())
	}

	required := requiredSet(a.InputSchema)
	for _, f := range data.InputFields {
		if required[f.JSONName] && f.GoType == "string" {
			data.Required = append(data.Required, f)
		}
	}
	return data
}

const configTemplate = `// internal/workers/{{ .Category }}/{{ .TaskType }}/config.go
package {{ .PackageName }}

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: {{ .Timeout }},
	}
}
`

const modelsTemplate = `// internal/workers/{{ .Category }}/{{ .TaskType }}/models.go
package {{ .PackageName }}

type Input struct {
{{- range .InputFields }}
	{{ .GoName }} {{ .GoType }} ` + "`json:\"{{ .JSONName }}\"`" + `
{{- end }}
}

type Output struct {
{{- range .OutputFields }}
	{{ .GoName }} {{ .GoType }} ` + "`json:\"{{ .JSONName }}\"`" + `
{{- end }}
}
`

const handlerTemplate = `// internal/workers/{{ .Category }}/{{ .TaskType }}/handler.go
package {{ .PackageName }}

import (
	"context"
	"encoding/json"
{{- if .Required }}
	"strings"
{{- end }}

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"ezrelo/internal/common/camunda"
	commonerrors "ezrelo/internal/common/errors"
	"ezrelo/internal/common/logger"
)

const (
	TaskType = "{{ .TaskType }}"
)

// Handler {{ lowerFirst .Description }}
type Handler struct {
	config *Config
	errors *commonerrors.ErrorHandler
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		errors: commonerrors.NewErrorHandler(log),
		logger: log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errors.HandleJobError(context.Background(), client, job, commonerrors.NewInputParseFailedError(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errors.HandleJobError(context.Background(), client, job, err)
		return
	}

	if err := camunda.CompleteJob(context.Background(), client, job, output); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{"jobKey": job.Key, "error": err.Error()})
	}
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
{{- range .Required }}
	if strings.TrimSpace(input.{{ .GoName }}) == "" {
		return nil, commonerrors.NewInvalidInputError("{{ .JSONName }} is required")
	}
{{- end }}

	return &Output{}, nil
}
`

const testTemplate = `package {{ .PackageName }}

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
{{ if .Required }}
	commonerrors "ezrelo/internal/common/errors"
{{- end }}
	"ezrelo/internal/common/logger"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	return NewHandler(&Config{Timeout: time.Second}, logger.NewTestLogger(t))
}
{{ if .Required }}
func TestHandler_Execute_MissingInput(t *testing.T) {
	h := newTestHandler(t)

	_, err := h.execute(context.Background(), &Input{})
	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeInvalidInput, commonerrors.AsStandard(err).Code)
}
{{ else }}
func TestHandler_Execute(t *testing.T) {
	h := newTestHandler(t)

	out, err := h.execute(context.Background(), &Input{})
	require.NoError(t, err)
	assert.NotNil(t, out)
}
{{ end -}}
`

var funcMap = template.FuncMap{
	"lowerFirst": func(s string) string {
		if s == "" {
			return s
		}
		return strings.ToLower(s[:1]) + s[1:]
	},
}

// render executes every template and gofmts the Go output.
func render(data WorkerData) (map[string][]byte, error) {
	templates := map[string]string{
		"config.go":       configTemplate,
		"models.go":       modelsTemplate,
		"handler.go":      handlerTemplate,
		"handler_test.go": testTemplate,
	}

	files := make(map[string][]byte, len(templates))
	for filename, tmplStr := range templates {
		tmpl, err := template.New(filename).Funcs(funcMap).Parse(tmplStr)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", filename, err)
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("execute template %s: %w", filename, err)
		}
		src, err := format.Source(buf.Bytes())
		if err != nil {
			return nil, fmt.Errorf("format %s: %w", filename, err)
		}
		files[filename] = src
	}
	return files, nil
}

func main() {
	activity := flag.String("activity", "", "Activity ID from registry (e.g., toggle-task)")
	outputDir := flag.String("output", "./internal/workers/", "Root directory for generated workers")
	registryPath := flag.String("registry", "configs/activity-registry.json", "Path to the activity registry JSON file")
	force := flag.Bool("force", false, "Overwrite an existing worker directory")
	flag.Parse()

	if *activity == "" {
		fmt.Println("Usage: worker-generator -activity <id> [-output <dir>] [-registry <path>] [-force]")
		fmt.Println("\nExample:")
		fmt.Println("  go run ./cmd/tools/worker-generator -activity toggle-task")
		os.Exit(1)
	}

	reg, err := registry.LoadRegistry(*registryPath)
	if err != nil {
		fmt.Printf("Error loading registry from %s: %v\n", *registryPath, err)
		os.Exit(1)
	}

	var found *registry.Activity
	for i := range reg.Activities {
		if reg.Activities[i].ID == *activity {
			found = &reg.Activities[i]
			break
		}
	}
	if found == nil {
		fmt.Printf("Activity '%s' not found in registry %s\n", *activity, *registryPath)
		os.Exit(1)
	}

	data := newWorkerData(found)
	workerDir := filepath.Join(*outputDir, data.Category, found.ID)
	if _, err := os.Stat(workerDir); err == nil && !*force {
		fmt.Printf("%s already exists; pass -force to overwrite\n", workerDir)
		os.Exit(1)
	}

	files, err := render(data)
	if err != nil {
		fmt.Printf("Error rendering worker: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(workerDir, 0755); err != nil {
		fmt.Printf("Error creating directory: %v\n", err)
		os.Exit(1)
	}
	for filename, src := range files {
		path := filepath.Join(workerDir, filename)
		if err := os.WriteFile(path, src, 0644); err != nil {
			fmt.Printf("Error writing %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("Generated %s\n", path)
	}

	fmt.Printf("\nNext steps:\n")
	fmt.Printf("  1. Implement execute in %s\n", filepath.Join(workerDir, "handler.go"))
	fmt.Printf("  2. Register %s.NewHandler in cmd/worker-manager/main.go\n", data.PackageName)
	fmt.Printf("  3. Add a workers.%s entry to configs/config.yaml\n", found.ID)
}
