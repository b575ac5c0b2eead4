package ai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

const qualifyDescriptionChars = 2000

// ChatCompleter is the slice of the go-openai client the processor needs.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// QualificationResult is the structured outcome of lead qualification.
type QualificationResult struct {
	IsQualified       bool     `json:"is_qualified"`
	RelevanceScore    float64  `json:"relevance_score"`
	Reason            string   `json:"reason"`
	TargetContactRole string   `json:"target_contact_role"`
	PainPoints        []string `json:"company_pain_points"`
	RawResponse       string   `json:"-"`
}

// EmailDraft is a generated outreach email.
type EmailDraft struct {
	Subject     string `json:"subject"`
	Body        string `json:"body"`
	RawResponse string `json:"-"`
}

// QualifyInput carries the job posting context for qualification.
type QualifyInput struct {
	CompanyName    string
	JobTitle       string
	JobDescription string
	Location       string
}

// DraftInput carries the lead context for email drafting.
type DraftInput struct {
	CompanyName string
	JobTitle    string
	ContactRole string
	Reason      string
	PainPoints  []string
}

// Processor runs the three LLM chains over a chat-completion client.
type Processor struct {
	client  ChatCompleter
	model   string
	product string
}

// NewProcessor creates a Processor for the given model.
func NewProcessor(client ChatCompleter, model, productDescription string) *Processor {
	return &Processor{
		client:  client,
		model:   model,
		product: productDescription,
	}
}

// GenerateKeywords asks the model for buyer-signal role keywords for the
// product. An unparseable or non-array response is an error so callers can
// fall back to the default list.
func (p *Processor) GenerateKeywords(ctx context.Context, productDescription string) ([]string, error) {
	logrus.Infof("Generating role keywords for product: %.60s", productDescription)

	raw, err := p.complete(ctx, keywordSystemPrompt, fmt.Sprintf(keywordUserPrompt, productDescription), 0.2)
	if err != nil {
		return nil, fmt.Errorf("keyword generation request failed: %w", err)
	}

	parsed, ok := ExtractJSON(raw)
	if !ok {
		return nil, fmt.Errorf("keyword generation returned unparseable response")
	}

	list, ok := parsed.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a JSON array of strings, got %T", parsed)
	}

	keywords := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok && s != "" {
			keywords = append(keywords, strings.ToLower(strings.TrimSpace(s)))
		}
	}

	logrus.Infof("Generated %d keywords", len(keywords))
	return keywords, nil
}

// QualifyLead scores a job posting as a potential customer. A transport
// error is returned as an error; unparseable model output yields a safe
// not-qualified result with a nil error so one bad response never aborts a
// batch.
func (p *Processor) QualifyLead(ctx context.Context, in QualifyInput) (*QualificationResult, error) {
	logrus.Infof("Qualifying lead: %s @ %s", in.JobTitle, in.CompanyName)

	location := in.Location
	if location == "" {
		location = "Remote"
	}

	prompt := fmt.Sprintf(qualifyUserPrompt,
		p.product,
		in.CompanyName,
		in.JobTitle,
		location,
		Truncate(in.JobDescription, qualifyDescriptionChars),
	)

	raw, err := p.complete(ctx, qualifySystemPrompt, prompt, 0.1)
	if err != nil {
		return nil, fmt.Errorf("qualification request failed: %w", err)
	}

	parsed, ok := ExtractJSON(raw)
	obj, isObj := parsed.(map[string]any)
	if !ok || !isObj {
		logrus.Errorf("Qualification returned unparseable response for %s: %.200s", in.CompanyName, raw)
		return &QualificationResult{
			IsQualified:       false,
			RelevanceScore:    0,
			Reason:            "LLM returned unparseable response.",
			TargetContactRole: "Unknown",
			PainPoints:        []string{},
			RawResponse:       raw,
		}, nil
	}

	result := &QualificationResult{
		IsQualified:       boolField(obj, "is_qualified"),
		RelevanceScore:    floatField(obj, "relevance_score"),
		Reason:            stringField(obj, "reason", ""),
		TargetContactRole: stringField(obj, "target_contact_role", "Unknown"),
		PainPoints:        stringListField(obj, "company_pain_points"),
		RawResponse:       raw,
	}

	logrus.Infof("Qualification result: is_qualified=%t score=%.1f for %s @ %s",
		result.IsQualified, result.RelevanceScore, in.JobTitle, in.CompanyName)
	return result, nil
}

// DraftEmail writes a cold outreach email for a qualified lead. Invalid
// model output falls back to a deterministic template so outreach always has
// something to send.
func (p *Processor) DraftEmail(ctx context.Context, in DraftInput) (*EmailDraft, error) {
	logrus.Infof("Drafting email for: %s (contact: %s)", in.CompanyName, in.ContactRole)

	painPoints := "Not specified"
	if len(in.PainPoints) > 0 {
		lines := make([]string, 0, len(in.PainPoints))
		for _, pp := range in.PainPoints {
			lines = append(lines, "- "+pp)
		}
		painPoints = strings.Join(lines, "\n")
	}

	prompt := fmt.Sprintf(draftUserPrompt,
		p.product,
		in.CompanyName,
		in.JobTitle,
		in.ContactRole,
		in.Reason,
		painPoints,
	)

	raw, err := p.complete(ctx, draftSystemPrompt, prompt, 0.7)
	if err != nil {
		return nil, fmt.Errorf("email draft request failed: %w", err)
	}

	parsed, ok := ExtractJSON(raw)
	obj, isObj := parsed.(map[string]any)
	if !ok || !isObj || obj["subject"] == nil || obj["body"] == nil {
		logrus.Errorf("Email draft returned invalid structure for %s: %.200s", in.CompanyName, raw)
		return fallbackDraft(in, raw), nil
	}

	return &EmailDraft{
		Subject:     stringField(obj, "subject", ""),
		Body:        stringField(obj, "body", ""),
		RawResponse: raw,
	}, nil
}

// complete issues a single chat completion and returns the text content.
func (p *Processor) complete(ctx context.Context, system, user string, temperature float32) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

func fallbackDraft(in DraftInput, raw string) *EmailDraft {
	return &EmailDraft{
		Subject: fmt.Sprintf("Quick question about your %s role", in.JobTitle),
		Body: fmt.Sprintf("Hi,\n\nI came across %s's recent %s posting "+
			"and thought our product might be relevant to what your team is building.\n\n"+
			"Would you be open to a quick 15-minute chat?\n\nBest", in.CompanyName, in.JobTitle),
		RawResponse: raw,
	}
}

func boolField(obj map[string]any, key string) bool {
	if v, ok := obj[key].(bool); ok {
		return v
	}
	return false
}

func floatField(obj map[string]any, key string) float64 {
	if v, ok := obj[key].(float64); ok {
		return v
	}
	return 0
}

func stringField(obj map[string]any, key, fallback string) string {
	if v, ok := obj[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func stringListField(obj map[string]any, key string) []string {
	list, ok := obj[key].([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
