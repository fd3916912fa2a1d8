package formatters

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"reflect"
	"slices"
	"strings"

	"prepcoach/internal/types"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gopkg.in/yaml.v3"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// Data type names used as registry keys
const (
	TypeAny             = "any"
	TypeAnalysis        = "ResumeAnalysis"
	TypeReport          = "Report"
	TypeSession         = "SessionSnapshot"
	TypeQAHistory       = "QAHistory"
	TypeQuestionBatch   = "QuestionBatch"
	TypeQuestionHistory = "QuestionHistory"
	TypeProblems        = "CodingProblems"
	TypeJobs            = "Jobs"
	TypeEnrollments     = "Enrollments"
	TypeEnrollment      = "Enrollment"
	TypeQuizResults     = "QuizResults"
	TypeQuizResult      = "QuizResult"
	TypeUser            = "User"
	TypeDraft           = "ResumeDraft"
)

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", TypeAny, &JSONFormatter{})
	registry.RegisterFormatter("yaml", TypeAny, &YAMLFormatter{})
	registry.RegisterFormatter("text", TypeAny, &YAMLFormatter{})
	registry.RegisterFormatter("markdown", TypeAny, &GenericMarkdownFormatter{})
	registry.RegisterFormatter("html", TypeAny, &HTMLFormatter{registry: registry})

	registerTextFormatters(registry)
	registerMarkdownFormatters(registry)

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	data = indirect(data)
	dataType := getDataType(data)

	// Try specific formatter first
	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters[TypeAny]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats in a stable order
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	slices.Sort(formats)
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.ResumeAnalysis:
		return TypeAnalysis
	case types.Report:
		return TypeReport
	case types.SessionSnapshot:
		return TypeSession
	case []types.QAResult:
		return TypeQAHistory
	case types.QuestionBatch:
		return TypeQuestionBatch
	case []types.QuestionBatch:
		return TypeQuestionHistory
	case []types.CodingProblem:
		return TypeProblems
	case []types.Job:
		return TypeJobs
	case []types.Enrollment:
		return TypeEnrollments
	case types.Enrollment:
		return TypeEnrollment
	case []types.QuizResult:
		return TypeQuizResults
	case types.QuizResult:
		return TypeQuizResult
	case types.User:
		return TypeUser
	case types.ResumeDraft:
		return TypeDraft
	default:
		return TypeAny
	}
}

// indirect dereferences non-nil pointers so *T and T share formatters
func indirect(data any) any {
	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Pointer && !v.IsNil() {
		return v.Elem().Interface()
	}
	return data
}

// typed adapts a render function for one concrete type to Formatter
type typed[T any] struct {
	name   string
	render func(T) string
}

func (f typed[T]) Format(data any) (string, error) {
	value, ok := data.(T)
	if !ok {
		return "", fmt.Errorf("expected %s, got %T", f.name, data)
	}
	return f.render(value), nil
}

func (f typed[T]) SupportedType() string {
	return f.name
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData) + "\n", nil
}

func (jf *JSONFormatter) SupportedType() string {
	return TypeAny
}

// YAMLFormatter handles YAML formatting for any data type
type YAMLFormatter struct{}

func (yf *YAMLFormatter) Format(data any) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (yf *YAMLFormatter) SupportedType() string {
	return TypeAny
}

// GenericMarkdownFormatter wraps the YAML rendering in a code block
type GenericMarkdownFormatter struct{}

func (gf *GenericMarkdownFormatter) Format(data any) (string, error) {
	out, err := (&YAMLFormatter{}).Format(data)
	if err != nil {
		return "", err
	}
	return "```yaml\n" + out + "```\n", nil
}

func (gf *GenericMarkdownFormatter) SupportedType() string {
	return TypeAny
}

// HTMLFormatter renders the markdown output of any type as a standalone page
type HTMLFormatter struct {
	registry *FormatterRegistry
}

func (hf *HTMLFormatter) Format(data any) (string, error) {
	md, err := hf.registry.Format(data, "markdown")
	if err != nil {
		return "", err
	}

	var body bytes.Buffer
	converter := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := converter.Convert([]byte(md), &body); err != nil {
		return "", fmt.Errorf("failed to render html: %w", err)
	}

	title := "prepcoach"
	if line, _, _ := strings.Cut(md, "\n"); strings.HasPrefix(line, "# ") {
		title = strings.TrimPrefix(line, "# ")
	}

	var page strings.Builder
	page.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&page, "<title>%s</title>\n", html.EscapeString(title))
	page.WriteString("</head>\n<body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.String(), nil
}

func (hf *HTMLFormatter) SupportedType() string {
	return TypeAny
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
