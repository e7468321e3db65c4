// Copyright (c) 2026 Dossier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package index

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// # Answer Synthesis

// LLMOptions configures an OpenAI-compatible chat completion endpoint.
type LLMOptions struct {
	BaseURL string
	Model   string
	APIKey  string
}

// LLMSynthesizer answers questions with a chat model through langchaingo.
type LLMSynthesizer struct {
	model llms.Model
}

// NewLLMSynthesizer creates an LLMSynthesizer. An empty API key is an error
// since hosted endpoints reject anonymous calls.
func NewLLMSynthesizer(options LLMOptions) (*LLMSynthesizer, error) {
	if options.APIKey == "" {
		return nil, fmt.Errorf("index: llm api key is required")
	}

	client, err := openai.New(
		openai.WithBaseURL(options.BaseURL),
		openai.WithModel(options.Model),
		openai.WithToken(options.APIKey),
	)
	if err != nil {
		return nil, fmt.Errorf("index_llm_client_failed: %w", err)
	}
	return &LLMSynthesizer{model: client}, nil
}

/*
Answer asks the model to answer question using only contextDocuments.

Returns:
  - string: The model's answer
  - error: Transport or provider failures
*/
func (synthesizer *LLMSynthesizer) Answer(context context.Context, question string, contextDocuments []string) (string, error) {
	answer, err := llms.GenerateFromSinglePrompt(context, synthesizer.model, buildPrompt(question, contextDocuments),
		llms.WithTemperature(0.2),
		llms.WithMaxTokens(800),
	)
	if err != nil {
		return "", fmt.Errorf("index_llm_generate_failed: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

// NoSynthesizer is used when no model is configured. Every answer degrades.
type NoSynthesizer struct{}

// Answer always fails with ErrSynthesisUnavailable.
func (NoSynthesizer) Answer(context.Context, string, []string) (string, error) {
	return "", ErrSynthesisUnavailable
}

func buildPrompt(question string, contextDocuments []string) string {
	var builder strings.Builder
	builder.WriteString("Answer the question using only the documents below. ")
	builder.WriteString("If they do not contain the answer, say so.\n\n")

	for i, document := range contextDocuments {
		fmt.Fprintf(&builder, "Document %d:\n%s\n\n", i+1, document)
	}

	builder.WriteString("Question: ")
	builder.WriteString(question)
	builder.WriteString("\nAnswer:")
	return builder.String()
}
