package classifyformat

import "deal-intake/internal/models"

type Input struct {
	Text string `json:"text"`
}

type Output struct {
	Verdict models.FormatVerdict `json:"verdict"`
	Scores  Scores               `json:"scores"`
}
