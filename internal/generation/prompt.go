package generation

import (
	"fmt"
	"strings"

	"storyspark/internal/story"
)

const SystemPrompt = `You are an expert children's story writer and educator.
Your goal is to create high-quality, age-appropriate, and safe content.
Always ensure a positive tone and a constructive ending.
The language used should be strictly tailored to the target age group.`

func ProposalPrompt(cfg story.Config) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Expand this children's story idea into a structured proposal: %q.\n", strings.TrimSpace(cfg.Prompt))
	writeAudience(&sb, cfg)
	sb.WriteString("Provide character names/descriptions, setting details, a three-act plot outline, and a moral lesson.")
	return sb.String()
}

func BookPrompt(cfg story.Config, chapters int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Write a full children's book based on: %q.\n", strings.TrimSpace(cfg.Prompt))
	writeAudience(&sb, cfg)
	fmt.Fprintf(&sb, "Structure it into exactly %d chapters, numbered 1 to %d. Each chapter should be 150-300 words.\n", chapters, chapters)
	sb.WriteString("Maintain consistent character development and a clear narrative arc.")
	return sb.String()
}

func writeAudience(sb *strings.Builder, cfg story.Config) {
	fmt.Fprintf(sb, "Target age: %s.\n", cfg.AgeGroup)
	fmt.Fprintf(sb, "Tone: %s.\n", cfg.Tone)
	fmt.Fprintf(sb, "Language: %s.\n", cfg.Language)
}
