package service

import (
	"strings"

	"github.com/anime-shed/gridbot-inspector-go/internal/extractor"
)

// HelpMessage describes what the service needs from a screenshot.
const HelpMessage = "Grid Analyzer is running.\n\n" +
	"Send a screenshot of your futures grid bot and you get back:\n" +
	"• Automatic reading (OCR)\n" +
	"• Analysis and projections\n" +
	"• Setup adjustment suggestions\n\n" +
	"Tip: zoom in on the Status and Parameters areas to improve the reading."

// weakFieldLimit counts the raw text key, so at most one real field.
const weakFieldLimit = 2

var weakRecognitionGuidance = []string{
	"Weak OCR on this screenshot. Try to:",
	"• send it with more zoom",
	"• avoid blurry captures",
	"• capture Status and Parameters in the same screenshot",
}

func isWeak(rec extractor.Record) bool {
	return rec.Len() <= weakFieldLimit
}

// guidanceFor appends screenshot quality warnings to the weak recognition
// hints; a well-read screenshot gets no guidance.
func guidanceFor(rec extractor.Record, warnings []string) []string {
	if !isWeak(rec) {
		return nil
	}
	guidance := append([]string(nil), weakRecognitionGuidance...)
	for _, w := range warnings {
		guidance = append(guidance, "• "+w)
	}
	return guidance
}

func renderMessage(report, guidance []string) string {
	msg := strings.Join(report, "\n")
	if len(guidance) > 0 {
		msg += "\n\n" + strings.Join(guidance, "\n")
	}
	return msg
}
