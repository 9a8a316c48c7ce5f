package notify

import (
	"context"
	"fmt"
	"strings"

	"deal-intake/internal/common/aws"
	"deal-intake/internal/common/config"
	apperrors "deal-intake/internal/common/errors"
	"deal-intake/internal/common/logger"
)

// Report summarises one batch that had at least one failed record.
type Report struct {
	SessionID string
	BatchID   string
	Total     int
	Submitted int
	Failures  []string
}

func (r Report) Subject() string {
	return fmt.Sprintf("Deal batch %s: %d of %d failed", shortID(r.BatchID), len(r.Failures), r.Total)
}

func (r Report) Body() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session: %s\nBatch: %s\nTotal: %d\nSubmitted: %d\nFailed: %d\n",
		r.SessionID, r.BatchID, r.Total, r.Submitted, len(r.Failures))
	if len(r.Failures) > 0 {
		b.WriteString("\nFailures:\n")
		for _, f := range r.Failures {
			b.WriteString("- ")
			b.WriteString(f)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

type Notifier interface {
	NotifyFailures(ctx context.Context, report Report) error
}

type Noop struct{}

func (Noop) NotifyFailures(ctx context.Context, report Report) error { return nil }

type SNSNotifier struct {
	client   *aws.SNSClient
	topicARN string
	logger   logger.Logger
}

func NewSNSNotifier(client *aws.SNSClient, topicARN string, log logger.Logger) *SNSNotifier {
	return &SNSNotifier{client: client, topicARN: topicARN, logger: log}
}

func (n *SNSNotifier) NotifyFailures(ctx context.Context, report Report) error {
	id, err := n.client.PublishText(ctx, n.topicARN, report.Subject(), report.Body())
	if err != nil {
		return apperrors.NewNotificationSendFailedError(config.NotificationProviderSNS, err)
	}
	n.logger.Info("failure report published", map[string]interface{}{
		"batchId":   report.BatchID,
		"messageId": id,
	})
	return nil
}

type SESNotifier struct {
	client *aws.SESClient
	from   string
	to     []string
	logger logger.Logger
}

func NewSESNotifier(client *aws.SESClient, from string, to []string, log logger.Logger) *SESNotifier {
	return &SESNotifier{client: client, from: from, to: to, logger: log}
}

func (n *SESNotifier) NotifyFailures(ctx context.Context, report Report) error {
	id, err := n.client.SendText(ctx, n.from, n.to, report.Subject(), report.Body())
	if err != nil {
		return apperrors.NewNotificationSendFailedError(config.NotificationProviderSES, err)
	}
	n.logger.Info("failure report emailed", map[string]interface{}{
		"batchId":    report.BatchID,
		"messageId":  id,
		"recipients": len(n.to),
	})
	return nil
}

// New builds the notifier selected by cfg. Disabled notifications yield Noop.
func New(ctx context.Context, cfg config.NotificationConfig, log logger.Logger) (Notifier, error) {
	if !cfg.Enabled {
		return Noop{}, nil
	}
	switch cfg.Provider {
	case config.NotificationProviderSNS:
		client, err := aws.NewSNSClient(ctx, cfg.AWS.Region)
		if err != nil {
			return nil, err
		}
		return NewSNSNotifier(client, cfg.SNS.TopicARN, log), nil
	case config.NotificationProviderSES:
		client, err := aws.NewSESClient(ctx, cfg.AWS.Region)
		if err != nil {
			return nil, err
		}
		return NewSESNotifier(client, cfg.SES.FromEmail, cfg.SES.ToEmails, log), nil
	}
	return nil, fmt.Errorf("unknown notification provider %q", cfg.Provider)
}
