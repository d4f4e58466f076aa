package lookoutcmd

import (
	"fmt"
	"os"
	"time"

	"code.cloudfoundry.org/clock"
	"code.cloudfoundry.org/lager/v3"
	"github.com/concourse/flag/v2"
	multierror "github.com/hashicorp/go-multierror"
	"github.com/tedsuo/ifrit"
	"github.com/tedsuo/ifrit/grouper"
	"github.com/tedsuo/ifrit/sigmon"

	"github.com/lookout-ci/lookout/dedupe"
	"github.com/lookout-ci/lookout/jenkins"
	"github.com/lookout-ci/lookout/notify"
	"github.com/lookout-ci/lookout/watcher"
)

type LookoutCommand struct {
	Logger  flag.Lager
	LogFile string `long:"log-file" description:"File to additionally write logs to."`

	JenkinsDomain   string `long:"jenkins-domain" required:"true" description:"Domain of the Jenkins instance to watch, e.g. jenkins.example.com."`
	JenkinsJob      string `long:"jenkins-job" required:"true" description:"Name of the Jenkins job whose build history to watch."`
	JenkinsUsername string `long:"jenkins-username" description:"Username for Jenkins API basic auth."`
	JenkinsToken    string `long:"jenkins-token" description:"API token for Jenkins API basic auth."`

	TeamsWebhookURL flag.URL `long:"teams-webhook-url" required:"true" description:"Incoming webhook URL to post alerts to."`

	StateFile string `long:"state-file" default:"lookout-state.json" description:"Path at which to persist alert dedup state across restarts."`

	BuildPollInterval time.Duration `long:"build-poll-interval" default:"5s" description:"Interval on which to scan individual builds."`
	JobPollInterval   time.Duration `long:"job-poll-interval" default:"90m" description:"Interval on which to scan job-wide build counts. Zero or negative disables the job scan."`

	FetchTimeout  time.Duration `long:"fetch-timeout" default:"10s" description:"HTTP timeout for each Jenkins API request."`
	FetchRetryMax int           `long:"fetch-retry-max" default:"5" description:"Number of times to retry a failed Jenkins API request before giving up."`
	FetchWaitMin  time.Duration `long:"fetch-wait-min" default:"2s" description:"Minimum backoff between Jenkins API retries."`
	FetchWaitMax  time.Duration `long:"fetch-wait-max" default:"30s" description:"Maximum backoff between Jenkins API retries."`

	MaxFailedAttempts   int           `long:"max-failed-attempts" default:"3" description:"Consecutive failures of one build before alerting."`
	MaxRunningDuration  time.Duration `long:"max-running-duration" default:"3h" description:"How long a build may run before it is flagged as stuck."`
	MaxAbortedDuration  time.Duration `long:"max-aborted-duration" default:"4h" description:"Minimum duration of an aborted build for it to count as a timeout."`
	MaxRunningBuilds    int           `long:"max-running-builds" default:"8" description:"How many builds may run at once before alerting."`
	MaxAbortedBuilds    int           `long:"max-aborted-builds" default:"4" description:"How many aborted builds within the window before alerting."`
	MaxFailedBuilds     int           `long:"max-failed-builds" default:"3" description:"How many failed builds within the window before alerting."`
	MaxInProgressBuilds int           `long:"max-in-progress-builds" default:"6" description:"How many in-progress builds within the window before alerting."`
}

func (cmd *LookoutCommand) Execute(args []string) error {
	runner, err := cmd.Runner(args)
	if err != nil {
		return err
	}

	return <-ifrit.Invoke(sigmon.New(runner)).Wait()
}

func (cmd *LookoutCommand) Runner(args []string) (ifrit.Runner, error) {
	if err := cmd.validate(); err != nil {
		return nil, err
	}

	logger, err := cmd.constructLogger()
	if err != nil {
		return nil, err
	}

	jenkinsURL := "https://" + cmd.JenkinsDomain

	source := jenkins.NewClient(logger, jenkins.Config{
		URL:      jenkinsURL,
		Job:      cmd.JenkinsJob,
		Username: cmd.JenkinsUsername,
		Token:    cmd.JenkinsToken,

		Timeout:      cmd.FetchTimeout,
		RetryMax:     cmd.FetchRetryMax,
		RetryWaitMin: cmd.FetchWaitMin,
		RetryWaitMax: cmd.FetchWaitMax,
	})

	notifier := notify.NewTeamsNotifier(
		cmd.TeamsWebhookURL.String(),
		jenkinsURL+"/job/"+cmd.JenkinsJob,
	)

	store := dedupe.NewStore(logger, cmd.StateFile)
	state := store.Load()

	evaluator := watcher.NewEvaluator(cmd.JenkinsJob, watcher.Thresholds{
		MaxFailedAttempts:   cmd.MaxFailedAttempts,
		MaxRunningDuration:  cmd.MaxRunningDuration,
		MaxAbortedDuration:  cmd.MaxAbortedDuration,
		MaxRunningBuilds:    cmd.MaxRunningBuilds,
		MaxAbortedBuilds:    cmd.MaxAbortedBuilds,
		MaxFailedBuilds:     cmd.MaxFailedBuilds,
		MaxInProgressBuilds: cmd.MaxInProgressBuilds,
		Window:              cmd.JobPollInterval,
	})

	clck := clock.NewClock()

	members := grouper.Members{
		{
			Name: "build-scan",
			Runner: watcher.NewIntervalRunner(
				logger.Session("build-scan"),
				clck,
				watcher.NewBuildScanner(source, notifier, store, evaluator, state, clck),
				cmd.BuildPollInterval,
			),
		},
	}

	if cmd.JobPollInterval > 0 {
		members = append(members, grouper.Member{
			Name: "job-scan",
			Runner: watcher.NewIntervalRunner(
				logger.Session("job-scan"),
				clck,
				watcher.NewJobScanner(source, notifier, evaluator, clck),
				cmd.JobPollInterval,
			),
		})
	}

	return grouper.NewParallel(os.Interrupt, members), nil
}

func (cmd *LookoutCommand) validate() error {
	var errs *multierror.Error

	if cmd.BuildPollInterval <= 0 {
		errs = multierror.Append(
			errs,
			fmt.Errorf("build poll interval must be positive"),
		)
	}

	if (cmd.JenkinsUsername == "") != (cmd.JenkinsToken == "") {
		errs = multierror.Append(
			errs,
			fmt.Errorf("jenkins username and token must be provided together"),
		)
	}

	return errs.ErrorOrNil()
}

func (cmd *LookoutCommand) constructLogger() (lager.Logger, error) {
	logger, _ := cmd.Logger.Logger("lookout")

	if cmd.LogFile != "" {
		file, err := os.OpenFile(cmd.LogFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}

		logger.RegisterSink(lager.NewWriterSink(file, lager.DEBUG))
	}

	return logger, nil
}
