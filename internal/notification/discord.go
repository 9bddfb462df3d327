package notification

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/AgyeDark/galamsey-sentinel/internal/analysis"
	"github.com/AgyeDark/galamsey-sentinel/internal/log"
	"github.com/AgyeDark/galamsey-sentinel/internal/properties"
)

type DiscordMessage struct {
	Embeds []DiscordEmbed `json:"embeds"`
}

type DiscordEmbed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
}

const (
	colorRed    = 16711680
	colorOrange = 16753920
	colorGreen  = 65280
	colorGrey   = 9807270
)

// SendErrorNotification posts a run failure to the error webhook. An
// unset webhook URL disables it.
func SendErrorNotification(errorMessage string) error {
	url := properties.DiscordErrorNotificationUrl()
	if url == "" {
		log.Debugf("discord error webhook not configured, skipping")
		return nil
	}

	message := DiscordMessage{
		Embeds: []DiscordEmbed{
			{
				Title:       "🚨 Scan Failed",
				Description: fmt.Sprintf("The turbidity scan aborted:\n\n%s", errorMessage),
				Color:       colorRed,
			},
		},
	}
	return post(url, message)
}

// SendReportNotification posts the season verdict to the report webhook.
func SendReportNotification(report *analysis.Report) error {
	url := properties.DiscordReportNotificationUrl()
	if url == "" {
		log.Debugf("discord report webhook not configured, skipping")
		return nil
	}

	message := DiscordMessage{
		Embeds: []DiscordEmbed{
			{
				Title:       fmt.Sprintf("🛰️ %s, %d", report.Basin, report.Year),
				Description: describe(report),
				Color:       reportColor(report),
			},
		},
	}
	return post(url, message)
}

func describe(report *analysis.Report) string {
	var used, rejected, failed int
	for _, s := range report.Scenes {
		switch s.Status {
		case analysis.SceneUsed:
			used++
		case analysis.SceneRejected:
			rejected++
		case analysis.SceneFailed:
			failed++
		}
	}

	switch report.Outcome {
	case analysis.OutcomeNoScenes:
		return "No scenes matched the query."
	case analysis.OutcomeNoUsableData:
		return fmt.Sprintf("No usable scenes: %d rejected, %d failed.", rejected, failed)
	}
	return fmt.Sprintf("Status: **%s**\nMean NDTI: %.4f\nScenes: %d used, %d rejected, %d failed",
		report.Summary.Status, report.Summary.MeanTurbidity, used, rejected, failed)
}

func reportColor(report *analysis.Report) int {
	if report.Summary == nil {
		return colorGrey
	}
	switch {
	case strings.HasPrefix(report.Summary.Status, "CRITICAL"):
		return colorRed
	case strings.HasPrefix(report.Summary.Status, "MODERATE"):
		return colorOrange
	default:
		return colorGreen
	}
}

func post(url string, message DiscordMessage) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}

	resp, err := http.Post(url, "application/json", bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to send Discord notification, status code: %d", resp.StatusCode)
	}

	return nil
}
