// Package speech prepares replies for the browser's speech synthesiser and
// talks to the batch transcription service.
package speech

import (
	"sort"
	"strings"

	"github.com/askmatsya/bolt/internal/models"
)

// Voice is a synthesiser voice as reported by the client.
type Voice struct {
	Name         string `json:"name"`
	Lang         string `json:"lang"`
	LocalService bool   `json:"localService"`
}

// Utterance tells the client how to speak a reply.
type Utterance struct {
	Text          string   `json:"text"`
	Lang          string   `json:"lang"`
	LangFallbacks []string `json:"lang_fallbacks"`
	Rate          float64  `json:"rate"`
	Pitch         float64  `json:"pitch"`
	Volume        float64  `json:"volume"`
	Voice         *Voice   `json:"voice,omitempty"`
}

var langFallbacks = map[models.Language][]string{
	models.LanguageTamil:   {"ta-IN", "ta", "hi-IN", "en-IN"},
	models.LanguageEnglish: {"en-IN", "en-US", "en-GB", "en-AU"},
}

// Plan builds the utterance for text, picking the best of the offered voices.
func Plan(text string, lang models.Language, voices []Voice) Utterance {
	if lang != models.LanguageTamil {
		lang = models.LanguageEnglish
	}
	fallbacks := langFallbacks[lang]
	u := Utterance{
		Text:          text,
		Lang:          fallbacks[0],
		LangFallbacks: append([]string(nil), fallbacks...),
		Rate:          0.9,
		Pitch:         1.1,
		Volume:        0.85,
	}
	if lang == models.LanguageTamil {
		u.Rate = 0.85 // slower for clarity
	}
	if best, ok := BestVoice(voices, lang); ok {
		u.Voice = &best
	}
	return u
}

// BestVoice returns the highest scoring voice. Ties keep the client's order.
func BestVoice(voices []Voice, lang models.Language) (Voice, bool) {
	if len(voices) == 0 {
		return Voice{}, false
	}
	ranked := append([]Voice(nil), voices...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return Score(ranked[i], lang) > Score(ranked[j], lang)
	})
	return ranked[0], true
}

// Score rates how natural a voice is likely to sound for lang.
func Score(v Voice, lang models.Language) int {
	name := strings.ToLower(v.Name)
	target := "en"
	if lang == models.LanguageTamil {
		target = "ta"
	}

	score := 0
	if containsAny(name, "neural", "natural", "wavenet", "journey", "studio") {
		score += 100
	}
	if containsAny(name, "premium", "enhanced", "high quality") {
		score += 80
	}
	if containsAny(v.Name, "Google", "Microsoft", "Amazon") {
		score += 60
	}
	if v.LocalService {
		score += 40
	}
	if strings.HasPrefix(v.Lang, target) {
		score += 50
		if strings.Contains(v.Lang, "IN") {
			score += 30
		}
	}

	switch {
	case lang == models.LanguageTamil && strings.HasPrefix(v.Lang, "ta"):
		score += 50
	case lang == models.LanguageEnglish:
		score += map[string]int{"en-IN": 25, "en-US": 20, "en-GB": 15, "en-AU": 10}[v.Lang]
	}

	if containsAny(name, "female", "woman", "zira", "hazel", "aria") {
		score += 10
	}
	return score
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Planner adapts Plan to the orchestrator's Speaker interface.
type Planner struct{}

func (Planner) Plan(text string, lang models.Language, voices []Voice) Utterance {
	return Plan(text, lang, voices)
}
