package service

import (
	"strings"

	"github.com/arbovm/levenshtein"
	"github.com/codycollier/wer"

	"github.com/anime-shed/gridbot-inspector-go/internal/extractor"
	"github.com/anime-shed/gridbot-inspector-go/pkg/models"
)

// measureAccuracy compares case-folded, whitespace-collapsed texts. It returns
// nil when expected is blank.
func measureAccuracy(expected, recognized string) *models.OCRAccuracy {
	ref := strings.ToLower(extractor.CollapseWhitespace(expected))
	if ref == "" {
		return nil
	}
	hyp := strings.ToLower(extractor.CollapseWhitespace(recognized))

	wordRate, wordEdits := wer.WER(strings.Fields(ref), strings.Fields(hyp))
	charEdits := levenshtein.Distance(ref, hyp)

	return &models.OCRAccuracy{
		ExpectedText:       expected,
		WordErrorRate:      wordRate,
		CharacterErrorRate: float64(charEdits) / float64(len([]rune(ref))),
		WordEdits:          wordEdits,
		CharacterEdits:     charEdits,
	}
}
