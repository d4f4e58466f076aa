package jenkins

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"code.cloudfoundry.org/lager/v3"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/lookout-ci/lookout"
)

// treeQuery limits the API response to the build fields the watcher needs.
const treeQuery = "builds[building,result,timestamp,id,fullDisplayName,duration]"

type Config struct {
	URL      string // e.g. https://jenkins.example.com
	Job      string
	Username string
	Token    string

	Timeout      time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

// Client fetches the build history of one Jenkins job. Transient HTTP
// failures are retried with exponential backoff up to RetryMax extra
// attempts; the error returned once those are exhausted is fatal to the
// scan loop that called it.
type Client struct {
	logger     lager.Logger
	apiURL     string
	username   string
	token      string
	httpClient *http.Client
}

func NewClient(logger lager.Logger, config Config) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.Logger = nil
	retryClient.RetryMax = config.RetryMax
	retryClient.RetryWaitMin = config.RetryWaitMin
	retryClient.RetryWaitMax = config.RetryWaitMax
	retryClient.HTTPClient.Timeout = config.Timeout

	return &Client{
		logger:     logger,
		apiURL:     config.URL + "/job/" + config.Job + "/api/json?tree=" + url.QueryEscape(treeQuery),
		username:   config.Username,
		token:      config.Token,
		httpClient: retryClient.StandardClient(),
	}
}

type apiBuild struct {
	ID              *string `json:"id"`
	FullDisplayName string  `json:"fullDisplayName"`
	Result          string  `json:"result"`
	Timestamp       *int64  `json:"timestamp"`
	Duration        int64   `json:"duration"`
	Building        bool    `json:"building"`
}

type apiJob struct {
	Builds []apiBuild `json:"builds"`
}

// Builds returns the job's visible build history, oldest first. Entries
// missing an id or timestamp are dropped and logged; a missing duration is
// zero, which is also what Jenkins reports while a build is in progress.
func (c *Client) Builds(ctx context.Context) ([]lookout.Build, error) {
	logger := c.logger.Session("builds")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL, nil)
	if err != nil {
		return nil, err
	}

	if c.username != "" {
		req.SetBasicAuth(c.username, c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected response status: %d", resp.StatusCode)
	}

	var job apiJob
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return nil, err
	}

	// Jenkins lists builds newest first; streak counting needs them in
	// chronological order.
	builds := make([]lookout.Build, 0, len(job.Builds))
	for i := len(job.Builds) - 1; i >= 0; i-- {
		raw := job.Builds[i]

		if raw.ID == nil || raw.Timestamp == nil {
			logger.Info("dropping-malformed-build", lager.Data{
				"display-name": raw.FullDisplayName,
			})
			continue
		}

		builds = append(builds, lookout.Build{
			ID:          *raw.ID,
			DisplayName: raw.FullDisplayName,
			Status:      lookout.StatusFromResult(raw.Result, raw.Building),
			StartTime:   *raw.Timestamp,
			Duration:    raw.Duration,
			Building:    raw.Building,
		})
	}

	return builds, nil
}
