package story

import "strings"

type AgeGroup string

const (
	AgeToddler   AgeGroup = "0-3 years"
	AgePreschool AgeGroup = "4-6 years"
	AgeEarly     AgeGroup = "7-9 years"
	AgePreteen   AgeGroup = "10-12 years"
)

type Tone string

const (
	ToneMagical     Tone = "Magical"
	ToneEducational Tone = "Educational"
	ToneAdventurous Tone = "Adventurous"
	ToneCalming     Tone = "Calming"
)

type Language string

const (
	LangEnglish Language = "English"
	LangSpanish Language = "Spanish"
	LangFrench  Language = "French"
	LangGerman  Language = "German"
	LangChinese Language = "Chinese"
)

// Mode selects between the ask-then-approve flow and direct book generation.
type Mode string

const (
	ModeAsk   Mode = "ASK"
	ModeAgent Mode = "AGENT"
)

var (
	AgeGroups = []AgeGroup{AgeToddler, AgePreschool, AgeEarly, AgePreteen}
	Tones     = []Tone{ToneMagical, ToneEducational, ToneAdventurous, ToneCalming}
	Languages = []Language{LangEnglish, LangSpanish, LangFrench, LangGerman, LangChinese}
	Modes     = []Mode{ModeAsk, ModeAgent}
)

func (a AgeGroup) Valid() bool { return contains(AgeGroups, a) }
func (t Tone) Valid() bool     { return contains(Tones, t) }
func (l Language) Valid() bool { return contains(Languages, l) }
func (m Mode) Valid() bool     { return contains(Modes, m) }

// ParseMode accepts the wire spelling in any case.
func ParseMode(s string) (Mode, bool) {
	m := Mode(strings.ToUpper(strings.TrimSpace(s)))
	return m, m.Valid()
}

func contains[T comparable](set []T, v T) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
