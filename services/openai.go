package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"

	"call_center_app_go/config"

	"github.com/sashabaranov/go-openai"
)

// LeadExtractor turns a transcript into a raw lead judgement
type LeadExtractor interface {
	ExtractLead(ctx context.Context, transcript string) (*LeadJudgement, error)
}

// Transcriber converts an audio file into text
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Summarizer condenses a transcript
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// AIProvider bundles every language-model capability the service uses
type AIProvider interface {
	LeadExtractor
	Transcriber
	Summarizer
}

// AI is the global language-model provider
var AI AIProvider

// ErrEmptyCompletion is returned when the model answers with no choices
var ErrEmptyCompletion = errors.New("model returned no choices")

// go-openai omits a zero temperature, which the API then treats as the default of 1
const deterministicTemperature = math.SmallestNonzeroFloat32

const leadSystemPrompt = `You are an expert AI that extracts lead information from Hindi call transcriptions.

EXTRACTION RULES:
1. NAME EXTRACTION - Look for patterns:
    - "मेरा नाम है [NAME]" → Extract [NAME]
    - "मेरा नाम [NAME] है" → Extract [NAME]
    - "मैं [NAME] बोल रही हूँ" → Extract [NAME]
    - "नाम है [NAME]" → Extract [NAME]

2. PHONE EXTRACTION - Look for patterns:
    - "मेरा वाटसप नंबर है [NUMBER]" → Extract [NUMBER]
    - "मेरा नंबर है [NUMBER]" → Extract [NUMBER]
    - "वाटसप नंबर [NUMBER]" → Extract [NUMBER]
    - Any 10-digit number starting with 6,7,8,9

3. PRODUCT EXTRACTION - Look for: जीन्स, कपड़े, सैम्पल्स, ब्लैक, clothing, collection

4. LEAD QUALIFICATION:
    - Customer wants to buy/see products = TRUE
    - Has name OR phone = TRUE
    - Only complaint/status check = FALSE

5. APPOINTMENT DETECTION - Look for: मिलना, आना, शाम को, कल, समय

RESPOND IN JSON FORMAT ONLY:
{
  "is_lead": boolean,
  "customer_name": "string",
  "phone_number": "string",
  "product_interest": "string",
  "customer_need": "string",
  "is_appointment": boolean,
  "confidence_score": 0.5,
  "extraction_method": "gpt4o-mini-api"
}`

const summarySystemPrompt = "You are a helpful assistant that summarizes call transcriptions concisely."

// OpenAIClient implements AIProvider with the OpenAI API
type OpenAIClient struct {
	client *openai.Client
}

// InitializeAI sets up the global AI provider from configuration
func InitializeAI(cfg *config.Config) {
	if cfg.OpenAIAPIKey == "" {
		log.Println("[WARNING] OPENAI_API_KEY not set; transcription and lead analysis will fail")
	}
	AI = NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
}

// NewOpenAIClient creates a client, optionally against a compatible base URL
func NewOpenAIClient(apiKey, baseURL string) *OpenAIClient {
	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	return &OpenAIClient{client: openai.NewClientWithConfig(clientConfig)}
}

// leadWire tolerates numbers where strings are expected
type leadWire struct {
	IsLead          bool       `json:"is_lead"`
	CustomerName    FlexString `json:"customer_name"`
	PhoneNumber     FlexString `json:"phone_number"`
	ProductInterest FlexString `json:"product_interest"`
	CustomerNeed    FlexString `json:"customer_need"`
	IsAppointment   bool       `json:"is_appointment"`
	ConfidenceScore float64    `json:"confidence_score"`
}

// ExtractLead implements LeadExtractor
func (o *OpenAIClient) ExtractLead(ctx context.Context, transcript string) (*LeadJudgement, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: openai.GPT4oMini,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: leadSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("ANALYZE THIS TRANSCRIPT FOR LEAD INFORMATION: %q", transcript)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: deterministicTemperature,
		MaxTokens:   1000,
	})
	if err != nil {
		return nil, fmt.Errorf("lead extraction request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyCompletion
	}

	var wire leadWire
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &wire); err != nil {
		return nil, fmt.Errorf("failed to parse lead extraction: %w", err)
	}

	return &LeadJudgement{
		IsLead:          wire.IsLead,
		CustomerName:    string(wire.CustomerName),
		PhoneNumber:     string(wire.PhoneNumber),
		ProductInterest: string(wire.ProductInterest),
		CustomerNeed:    string(wire.CustomerNeed),
		IsAppointment:   wire.IsAppointment,
		ConfidenceScore: wire.ConfidenceScore,
	}, nil
}

// Transcribe implements Transcriber with whisper-1
func (o *OpenAIClient) Transcribe(ctx context.Context, audioPath string) (string, error) {
	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: audioPath,
	})
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}
	return resp.Text, nil
}

// Summarize implements Summarizer
func (o *OpenAIClient) Summarize(ctx context.Context, text string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: openai.GPT4oMini,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: summarySystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: "Summarize this call transcription: " + text},
		},
		MaxTokens:   200,
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("summary request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}
