package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/api/option"

	"github.com/doctorai-app/backend/internal/apperrors"
	"github.com/doctorai-app/backend/internal/config"
	"github.com/doctorai-app/backend/internal/domain"
	"github.com/doctorai-app/backend/internal/imaging"
)

const (
	openAIModel = openai.GPT4Turbo
	geminiModel = "gemini-1.5-flash"

	maxResponseTokens = 500
	modelTemperature  = 0.2

	// Bounded timeout on every outbound model call.
	aiCallTimeout = 60 * time.Second
)

const visionSystemPrompt = `You are a professional dermatologist AI trained to assist users by analyzing images of skin conditions. When analyzing an image, provide a realistic and thorough response as follows:
1. **Diagnosis**: Identify the most likely skin condition shown in the image. Be descriptive and include features like lesions, discoloration, or patterns that are visible. If there is uncertainty, provide your best assessment based on your training.
2. **Danger Level**: Rate the condition on a scale of 1 to 5 (1 being not dangerous and 5 being potentially serious). Use this scale to help users understand the urgency of seeking professional care:
   - **1**: Mild, non-serious conditions such as dry skin, minor rashes, or acne.
   - **2**: Moderate conditions like mild eczema or rosacea that may require simple treatments.
   - **3**: Conditions like infected acne or moderate dermatitis that may need medical attention if untreated.
   - **4**: Serious conditions like severe infections, deep ulcers, or potentially cancerous lesions.
   - **5**: Emergency conditions such as necrotizing fasciitis, advanced skin cancer, or severe burns that require immediate medical intervention.

3. **Treatment Suggestions**: Provide tailored suggestions for topical treatments, oral medications, or other relevant advice. Include over-the-counter and prescription options, lifestyle changes, and preventative measures. If there is any uncertainty, suggest the user consult a dermatologist for further evaluation.

4. **Disclaimer**: End your response with a clear disclaimer stating that your analysis is based solely on the image provided and does not replace professional medical advice. Encourage users to consult a licensed dermatologist for confirmation and a personalized treatment plan.

Avoid saying "I cannot analyze this image" or giving generic responses. Act as a professional dermatologist would, providing meaningful guidance based on the image.`

const visionUserPrompt = "Analyze this skin condition"

// AIService talks to the configured model provider. The returned text is
// treated as opaque; no structural validation is applied to it.
type AIService struct {
	provider     string
	openaiClient *openai.Client
	geminiClient *genai.Client
}

func NewAIService(cfg config.AIConfig) (*AIService, error) {
	s := &AIService{
		provider:     cfg.Provider,
		openaiClient: openai.NewClient(cfg.OpenAIAPIKey),
	}

	if cfg.Provider == config.ProviderGemini {
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("AI_PROVIDER is gemini but GEMINI_API_KEY is not set")
		}
		geminiClient, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.GeminiAPIKey))
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		s.geminiClient = geminiClient
	}

	return s, nil
}

// AnalyzeImage sends the image to the vision model with the diagnostic
// instruction and returns its free-text commentary.
func (s *AIService) AnalyzeImage(ctx context.Context, image []byte, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, aiCallTimeout)
	defer cancel()

	if s.provider == config.ProviderGemini {
		return s.analyzeWithGemini(ctx, image, contentType)
	}
	return s.analyzeWithOpenAI(ctx, image, contentType)
}

func (s *AIService) analyzeWithOpenAI(ctx context.Context, image []byte, contentType string) (string, error) {
	resp, err := s.openaiClient.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model:       openAIModel,
			Messages:    buildVisionMessages(imaging.DataURL(contentType, image)),
			MaxTokens:   maxResponseTokens,
			Temperature: modelTemperature,
		},
	)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.KindAnalysis, "image analysis failed")
	}
	if len(resp.Choices) == 0 {
		return "", apperrors.New(apperrors.KindAnalysis, "vision model returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

func (s *AIService) analyzeWithGemini(ctx context.Context, image []byte, contentType string) (string, error) {
	model := s.geminiClient.GenerativeModel(geminiModel)

	img := genai.ImageData(geminiImageFormat(contentType), image)
	resp, err := model.GenerateContent(ctx, img, genai.Text(visionSystemPrompt+"\n\n"+visionUserPrompt))
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.KindAnalysis, "image analysis failed")
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", apperrors.New(apperrors.KindAnalysis, "vision model returned no candidates")
	}

	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", apperrors.New(apperrors.KindAnalysis, "vision model returned a non-text part")
	}
	return string(text), nil
}

// Chat sends the full history verbatim as the model's conversation context
// and returns the newest assistant message.
func (s *AIService) Chat(ctx context.Context, history []domain.ChatMessage) (string, error) {
	if len(history) == 0 {
		return "", apperrors.New(apperrors.KindChat, "empty conversation history")
	}

	ctx, cancel := context.WithTimeout(ctx, aiCallTimeout)
	defer cancel()

	if s.provider == config.ProviderGemini {
		return s.chatWithGemini(ctx, history)
	}
	return s.chatWithOpenAI(ctx, history)
}

func (s *AIService) chatWithOpenAI(ctx context.Context, history []domain.ChatMessage) (string, error) {
	resp, err := s.openaiClient.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model:       openAIModel,
			Messages:    toOpenAIMessages(history),
			MaxTokens:   maxResponseTokens,
			Temperature: modelTemperature,
		},
	)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.KindChat, "chat completion failed")
	}
	if len(resp.Choices) == 0 {
		return "", apperrors.New(apperrors.KindChat, "chat model returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

func (s *AIService) chatWithGemini(ctx context.Context, history []domain.ChatMessage) (string, error) {
	model := s.geminiClient.GenerativeModel(geminiModel)

	cs := model.StartChat()
	cs.History = toGeminiHistory(history[:len(history)-1])

	resp, err := cs.SendMessage(ctx, genai.Text(history[len(history)-1].Content))
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.KindChat, "chat completion failed")
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", apperrors.New(apperrors.KindChat, "chat model returned no candidates")
	}

	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", apperrors.New(apperrors.KindChat, "chat model returned a non-text part")
	}
	return string(text), nil
}

func buildVisionMessages(imageDataURL string) []openai.ChatCompletionMessage {
	return []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: visionSystemPrompt,
		},
		{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{
					Type: openai.ChatMessagePartTypeText,
					Text: visionUserPrompt,
				},
				{
					Type: openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{
						URL: imageDataURL,
					},
				},
			},
		},
	}
}

func toOpenAIMessages(history []domain.ChatMessage) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(history))
	for _, msg := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}
	return messages
}

// toGeminiHistory maps the service's roles onto Gemini's user/model pair.
// System turns have no Gemini equivalent and are folded into user turns.
func toGeminiHistory(history []domain.ChatMessage) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, msg := range history {
		role := "user"
		if msg.Role == domain.RoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}
	return contents
}

func geminiImageFormat(contentType string) string {
	switch contentType {
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	default:
		return "jpeg"
	}
}
