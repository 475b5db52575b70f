package notify

import (
	"context"
	"time"

	"xcreport/src/broker"
	"xcreport/src/contracts"
	"xcreport/src/logger"
	"xcreport/src/report"
)

// PublishDelegate publishes a contracts.Notification for every reporter notification to
// contracts.TopicNotifications, keyed by run ID. Publish errors are logged, never
// returned: the reporter has no error path.
type PublishDelegate struct {
	ctx    context.Context
	pub    *broker.Codec
	runID  string
	target string
	log    logger.Logger
	now    func() time.Time
}

// NewPublishDelegate publishes notifications of runID through pub.
func NewPublishDelegate(ctx context.Context, pub *broker.Codec, runID string, log logger.Logger) *PublishDelegate {
	if log == nil {
		log = logger.NewSilentLogger()
	}
	return &PublishDelegate{ctx: ctx, pub: pub, runID: runID, log: log, now: time.Now}
}

func (d *PublishDelegate) BuildStarted(b *report.Build) {
	d.target = b.Target
	d.publish(contracts.Notification{Kind: contracts.NotifyBuildStarted, Status: b.Status.String()})
}

func (d *PublishDelegate) BuildFinished(b *report.Build) {
	d.publish(contracts.Notification{Kind: contracts.NotifyBuildFinished, Status: b.Status.String()})
}

func (d *PublishDelegate) BuildActionStarted(a *report.BuildAction) {
	d.publish(contracts.Notification{Kind: contracts.NotifyBuildActionStarted, Action: a.String()})
}

func (d *PublishDelegate) BuildActionFinished(a *report.BuildAction) {
	d.publish(contracts.Notification{Kind: contracts.NotifyBuildActionFinished, Action: a.String()})
}

func (d *PublishDelegate) EnvVariableDetected(name, value string) {
	d.publish(contracts.Notification{Kind: contracts.NotifyEnvVariable, Name: name, Value: value})
}

func (d *PublishDelegate) BuildActionFailed(a *report.BuildAction) {
	d.publish(contracts.Notification{Kind: contracts.NotifyBuildActionFailed, Action: a.String()})
}

func (d *PublishDelegate) publish(n contracts.Notification) {
	n.RunID = d.runID
	n.Target = d.target
	n.Timestamp = d.now().UTC().Format(time.RFC3339)
	if err := d.pub.Publish(d.ctx, contracts.TopicNotifications, d.runID, n); err != nil {
		d.log.Error("[PublishDelegate] failed to publish %s for %s: %v", n.Kind, d.runID, err)
	}
}
