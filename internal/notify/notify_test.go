package notify

import (
	"context"
	"errors"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deal-intake/internal/common/aws"
	"deal-intake/internal/common/config"
	apperrors "deal-intake/internal/common/errors"
	"deal-intake/internal/common/logger"
)

type fakeSNS struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: awssdk.String("m-1")}, nil
}

type fakeSES struct {
	input *ses.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: awssdk.String("e-1")}, nil
}

var report = Report{
	SessionID: "501",
	BatchID:   "3f2a9c1e-0000-4000-8000-000000000000",
	Total:     3,
	Submitted: 1,
	Failures:  []string{"Acme: Record rejected by store", "Line 3: FIELD_COUNT_MISMATCH"},
}

func TestReport(t *testing.T) {
	assert.Equal(t, "Deal batch 3f2a9c1e: 2 of 3 failed", report.Subject())
	body := report.Body()
	assert.Contains(t, body, "Session: 501\n")
	assert.Contains(t, body, "Submitted: 1\n")
	assert.Contains(t, body, "- Line 3: FIELD_COUNT_MISMATCH\n")
}

func TestSNSNotifier(t *testing.T) {
	api := &fakeSNS{}
	n := NewSNSNotifier(aws.NewSNSClientWithAPI(api), "arn:topic", logger.NewTestLogger(t))

	require.NoError(t, n.NotifyFailures(context.Background(), report))
	assert.Equal(t, "arn:topic", awssdk.ToString(api.input.TopicArn))
	assert.Equal(t, report.Body(), awssdk.ToString(api.input.Message))

	api.err = errors.New("throttled")
	err := n.NotifyFailures(context.Background(), report)
	assert.Equal(t, apperrors.ErrCodeNotificationSendFailed, apperrors.CodeOf(err))
}

func TestSESNotifier(t *testing.T) {
	api := &fakeSES{}
	n := NewSESNotifier(aws.NewSESClientWithAPI(api), "bot@example.com", []string{"ops@example.com"}, logger.NewNoOpLogger())

	require.NoError(t, n.NotifyFailures(context.Background(), report))
	assert.Equal(t, "bot@example.com", awssdk.ToString(api.input.Source))
	assert.Equal(t, []string{"ops@example.com"}, api.input.Destination.ToAddresses)
	assert.Equal(t, report.Subject(), awssdk.ToString(api.input.Message.Subject.Data))

	api.err = errors.New("not verified")
	assert.Error(t, n.NotifyFailures(context.Background(), report))
}

func TestNew_Disabled(t *testing.T) {
	n, err := New(context.Background(), config.NotificationConfig{}, logger.NewNoOpLogger())
	require.NoError(t, err)
	assert.IsType(t, Noop{}, n)
	assert.NoError(t, n.NotifyFailures(context.Background(), report))

	_, err = New(context.Background(), config.NotificationConfig{Enabled: true, Provider: "pigeon"}, logger.NewNoOpLogger())
	assert.Error(t, err)
}
