package llm

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/vorrawut/poon-ai-service-sub001/internal/model"
	"github.com/vorrawut/poon-ai-service-sub001/internal/service"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const notFound = "Not found"

// PromptBuilder renders the system and user prompts for both enhance modes.
type PromptBuilder struct {
	templates map[string]*template.Template
}

// Prompt is one rendered system and user prompt pair.
type Prompt struct {
	System string
	User   string
}

type systemData struct {
	Categories     []string
	PaymentMethods []string
}

type userData struct {
	RawText       string
	Language      string
	Merchant      string
	Amount        string
	Category      string
	Subcategory   string
	PaymentMethod string
	Date          string
	MissingFields []string
	WeakFields    []string
	Confidence    float64
}

// NewPromptBuilder parses the embedded templates.
func NewPromptBuilder() (*PromptBuilder, error) {
	pb := &PromptBuilder{
		templates: make(map[string]*template.Template),
	}

	funcMap := template.FuncMap{
		"join": strings.Join,
		"orNotFound": func(s string) string {
			if s == "" {
				return notFound
			}
			return s
		},
	}

	for _, name := range []string{"system_parse", "system_enhance", "parse_prompt", "enhance_prompt"} {
		filename := fmt.Sprintf("templates/%s.tmpl", name)
		tmpl, err := template.New(name + ".tmpl").Funcs(funcMap).ParseFS(templateFS, filename)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		pb.templates[name] = tmpl
	}

	return pb, nil
}

// Build renders the prompt pair for req. Parse mode ignores the local result.
func (pb *PromptBuilder) Build(req service.EnhanceRequest) (Prompt, error) {
	sys := systemData{
		Categories:     categoryNames(req.Categories),
		PaymentMethods: paymentNames(req.PaymentMethods),
	}

	systemName, userName := "system_enhance", "enhance_prompt"
	if req.Mode == service.ModeParse || req.Local == nil {
		systemName, userName = "system_parse", "parse_prompt"
	}

	system, err := pb.render(systemName, sys)
	if err != nil {
		return Prompt{}, err
	}
	user, err := pb.render(userName, newUserData(req))
	if err != nil {
		return Prompt{}, err
	}

	return Prompt{System: system, User: user}, nil
}

func (pb *PromptBuilder) render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := pb.templates[name].Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}

func newUserData(req service.EnhanceRequest) userData {
	data := userData{
		RawText:       req.RawText,
		Language:      req.Language,
		MissingFields: req.MissingFields,
		WeakFields:    req.WeakFields,
	}

	local := req.Local
	if local == nil {
		return data
	}

	data.Confidence = local.Confidence
	if local.Merchant != nil {
		data.Merchant = *local.Merchant
	}
	if local.Amount != nil {
		data.Amount = local.Amount.StringFixed(2)
	}
	if local.Category != nil {
		data.Category = local.Category.String()
	}
	if local.Subcategory != nil {
		data.Subcategory = *local.Subcategory
	}
	if local.PaymentMethod != nil {
		data.PaymentMethod = local.PaymentMethod.String()
	}
	if local.TransactionDate != nil {
		data.Date = local.TransactionDate.Format("2006-01-02")
	}
	return data
}

// categoryNames falls back to the full vocabulary when the request has none.
func categoryNames(categories []model.Category) []string {
	if len(categories) == 0 {
		categories = model.Categories
	}
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = c.String()
	}
	return names
}

func paymentNames(methods []model.PaymentMethod) []string {
	if len(methods) == 0 {
		methods = model.PaymentMethods
	}
	names := make([]string, len(methods))
	for i, p := range methods {
		names[i] = p.String()
	}
	return names
}
