// Package advisory turns a stored threat detection into a short
// plain-language briefing for field operators. It is strictly additive:
// detections and predictions are complete without it, and callers treat a
// missing API key or a failed generation as "no briefing".
package advisory

import (
	"context"
	"fmt"
	"os"
	"strings"

	"agridefender/models"

	"google.golang.org/genai"
)

type GeminiClient struct {
	client *genai.Client
	ctx    context.Context
}

func NewGeminiClient() (*GeminiClient, error) {
	ctx := context.Background()

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %v", err)
	}

	return &GeminiClient{
		client: client,
		ctx:    ctx,
	}, nil
}

const systemPrompt = `You are the AgriDefender field advisor, an assistant for an agricultural biothreat monitoring system.
You help field operators with:
- Interpreting threat detections from soil, weather and imagery sensors
- Prioritizing containment and treatment actions
- Understanding how threats spread across fields

Provide helpful, accurate, and concise responses. Be technical when needed but explain complex concepts clearly.
Keep responses under 200 words unless more detail is specifically requested.`

// BriefDetection produces an operator briefing for a detection and its
// recommendations.
func (g *GeminiClient) BriefDetection(detection *models.ThreatDetection) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "A %s threat was detected with %s severity (%.0f%% confidence).\n",
		detection.ThreatType, detection.ThreatLevel, detection.Confidence*100)
	fmt.Fprintf(&b, "Details: %s\n", detection.Description)
	if len(detection.Recommendations) > 0 {
		fmt.Fprintf(&b, "Current recommendations: %s\n", strings.Join(detection.Recommendations, "; "))
	}
	b.WriteString("Write a short briefing for the field team covering what this threat means and what to do first.")

	return g.GenerateResponse(b.String())
}

func (g *GeminiClient) GenerateResponse(message string) (string, error) {
	systemInstruction := genai.NewContentFromText(systemPrompt, genai.RoleModel)
	userContent := genai.NewContentFromText(message, genai.RoleUser)

	config := &genai.GenerateContentConfig{
		SystemInstruction: systemInstruction,
		Temperature:       genai.Ptr(float32(0.7)),
		TopP:              genai.Ptr(float32(0.8)),
		TopK:              genai.Ptr(float32(40)),
		MaxOutputTokens:   int32(200),
	}

	resp, err := g.client.Models.GenerateContent(
		g.ctx,
		"gemini-2.5-flash",
		[]*genai.Content{userContent},
		config,
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %v", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from model")
	}

	return strings.ReplaceAll(text, "*", ""), nil
}

func (g *GeminiClient) Close() error {
	// The client doesn't have an explicit Close method
	return nil
}
