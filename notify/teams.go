package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/lookout-ci/lookout"
)

// messageCard is the legacy Office 365 connector card format, which is what
// incoming Teams webhooks accept.
type messageCard struct {
	Type            string    `json:"@type"`
	Context         string    `json:"@context"`
	ThemeColor      string    `json:"themeColor"`
	Summary         string    `json:"summary"`
	Title           string    `json:"title"`
	Text            string    `json:"text"`
	PotentialAction []openURI `json:"potentialAction"`
}

type openURI struct {
	Type    string      `json:"@type"`
	Name    string      `json:"name"`
	Targets []uriTarget `json:"targets"`
}

type uriTarget struct {
	OS  string `json:"os"`
	URI string `json:"uri"`
}

// TeamsNotifier posts alerts to a Teams incoming webhook. Each alert becomes
// one card with a link back to the build that raised it, or to the job page
// for alerts that aren't about a single build.
type TeamsNotifier struct {
	webhookURL string
	jobURL     string
	httpClient *http.Client
}

func NewTeamsNotifier(webhookURL string, jobURL string) *TeamsNotifier {
	return &TeamsNotifier{
		webhookURL: webhookURL,
		jobURL:     jobURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (n *TeamsNotifier) Send(ctx context.Context, alert lookout.Alert) error {
	action := openURI{
		Type: "OpenUri",
		Name: "View Job Details",
		Targets: []uriTarget{
			{OS: "default", URI: n.jobURL},
		},
	}

	if alert.BuildID != "" {
		action.Name = "View Build Details"
		action.Targets[0].URI = n.jobURL + "/" + alert.BuildID
	}

	payload, err := json.Marshal(messageCard{
		Type:            "MessageCard",
		Context:         "http://schema.org/extensions",
		ThemeColor:      "0076D7",
		Summary:         alert.Title,
		Title:           alert.Title,
		Text:            alert.Body,
		PotentialAction: []openURI{action},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return err
	}

	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected response status: %d", resp.StatusCode)
	}

	return nil
}
