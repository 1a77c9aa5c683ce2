package render

import (
	"fmt"
	"math"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"lacquer/internal/badge"
)

var titleCaser = cases.Title(language.English)

var audioLabels = map[string]string{
	"truehd-atmos": "ATMOS",
	"truehd":       "TRUEHD",
	"eac3-atmos":   "DD+ ATMOS",
	"eac3":         "DD+",
	"ac3":          "DD",
	"dts-x":        "DTS:X",
	"dts-hd-ma":    "DTS-HD MA",
	"dts-hd":       "DTS-HD",
	"dts":          "DTS",
	"aac":          "AAC",
	"flac":         "FLAC",
	"opus":         "OPUS",
	"pcm":          "PCM",
	"mp3":          "MP3",
}

var resolutionLabels = map[string]string{
	"480p":  "SD",
	"720p":  "HD",
	"1080p": "1080P",
	"1440p": "1440P",
	"2160p": "4K",
	"4320p": "8K",
}

var awardLabels = map[string]string{
	"oscars":        "oscar winner",
	"emmys":         "emmy winner",
	"golden-globes": "golden globe winner",
	"bafta":         "bafta winner",
	"cannes":        "cannes",
	"wins":          "award winner",
}

// label maps normalized badge data onto display text. Data with no known
// mapping yields ErrNoMapping so callers can record the badge as skipped.
func label(badgeType badge.Type, data badge.Data) (string, error) {
	switch badgeType {
	case badge.TypeAudio:
		if text, ok := audioLabels[data.Value]; ok {
			return text, nil
		}
	case badge.TypeResolution:
		if text, ok := resolutionLabels[data.Value]; ok {
			return text, nil
		}
	case badge.TypeReview:
		if data.Value == "percent" && data.Score >= 0 && data.Score <= 100 {
			return fmt.Sprintf("%d%%", int(math.Round(data.Score))), nil
		}
	case badge.TypeAwards:
		if text, ok := awardLabels[data.Value]; ok {
			if data.Value == "bafta" {
				// Title casing would lowercase the acronym.
				return "BAFTA Winner", nil
			}
			return titleCaser.String(text), nil
		}
	}
	return "", fmt.Errorf("%w: badge %s value %q", ErrNoMapping, badgeType, data.Value)
}
