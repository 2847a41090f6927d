// Package testutil holds fixtures and doubles shared by package tests.
package testutil

import (
	"fmt"

	"storyspark/internal/story"
)

const Model = "gemini-3-flash-preview"

// Config returns a valid config for mode.
func Config(mode story.Mode) story.Config {
	return story.Config{
		Prompt:    "A shy turtle who wants to sing",
		AgeGroup:  story.AgePreschool,
		Tone:      story.ToneMagical,
		Language:  story.LangEnglish,
		Mode:      mode,
		ModelName: Model,
	}
}

func Proposal(title string) story.Proposal {
	return story.Proposal{
		Title:    title,
		AgeGroup: string(story.AgePreschool),
		Characters: []story.Character{
			{Name: "Tula", Description: "a shy turtle"},
		},
		Setting: "a pond",
		Theme:   "confidence",
		PlotOutline: story.PlotOutline{
			Beginning: "Tula hums alone.",
			Middle:    "The frogs hear her.",
			Ending:    "She sings at the festival.",
		},
		Moral: "Your voice matters.",
	}
}

// Book returns a valid book with n chapters.
func Book(title string, n int) story.Book {
	b := story.Book{Title: title, Summary: "A short tale."}
	for i := 1; i <= n; i++ {
		b.Chapters = append(b.Chapters, story.Chapter{
			ChapterNumber:           i,
			Title:                   fmt.Sprintf("Chapter %d", i),
			Content:                 fmt.Sprintf("Content of chapter %d.", i),
			IllustrationPlaceholder: fmt.Sprintf("Picture %d", i),
		})
	}
	return b
}
