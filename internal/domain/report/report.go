// Package report turns an analytics summary into prompts for a text generator.
package report

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/okian/pitchlog/internal/domain/analytics"
)

// Generator produces report text from a system and a user prompt.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// Section headings the generated report must follow, in order.
const (
	SectionNegative = "NEGATIVE TRENDS"
	SectionPositive = "POSITIVE TRENDS"
	SectionTraining = "TRAINING FOCUS (WEEK)"
	SectionSummary  = "SUMMARY"
)

const systemPrompt = "You are a tactical analyst specialised in grassroots football. " +
	"Write a short, actionable report for coaches. " +
	"Use ONLY the JSON data you receive; do not invent matches, trends or causes that cannot be observed. " +
	"Avoid empty or generic sentences. If data is missing, say so explicitly.\n\n" +
	"Mandatory output, in this exact format:\n" +
	SectionNegative + "\n- ...\n- ...\n- ...\n" +
	SectionPositive + "\n- ...\n- ...\n- ...\n" +
	SectionTraining + "\n- ...\n- ...\n- ...\n" +
	SectionSummary + "\nThe most important thing this week is...\n\n" +
	"Every bullet must rest on a concrete figure from the JSON (percentages, counts or averages)."

const userPrefix = "Available data:\n"

// BuildPrompt returns the system and user prompts for s. The user prompt
// embeds s as indented JSON with sorted keys, so equal summaries yield equal prompts.
func BuildPrompt(s analytics.Summary) (system, user string, err error) {
	data, err := sonic.ConfigStd.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("encode summary: %w", err)
	}
	return systemPrompt, userPrefix + string(data), nil
}
