package aws

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	input *ses.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

type fakeSNS struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNS) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("sns-1")}, nil
}

func TestSESClient_Send(t *testing.T) {
	api := &fakeSES{}
	client := NewSESClientWith(api)

	id, err := client.Send(context.Background(), Email{
		From:     "noreply@example.com",
		To:       []string{"ciso@example.com"},
		Subject:  "Results",
		TextBody: "score 50",
	})

	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)
	assert.Equal(t, "noreply@example.com", aws.ToString(api.input.Source))
	assert.Equal(t, []string{"ciso@example.com"}, api.input.Destination.ToAddresses)
	assert.Equal(t, "score 50", aws.ToString(api.input.Message.Body.Text.Data))
	assert.Nil(t, api.input.Message.Body.Html)
}

func TestSESClient_SendError(t *testing.T) {
	client := NewSESClientWith(&fakeSES{err: errors.New("throttled")})
	_, err := client.Send(context.Background(), Email{From: "a@b.c", To: []string{"d@e.f"}})
	assert.ErrorContains(t, err, "throttled")
}

func TestSNSClient_PublishJSON(t *testing.T) {
	api := &fakeSNS{}
	client := NewSNSClientWith(api)

	id, err := client.PublishJSON(context.Background(), "arn:aws:sns:us-east-1:1:topic",
		map[string]string{"reason": "assessment-recorded"}, map[string]string{"type": "benchmark-refresh"})

	require.NoError(t, err)
	assert.Equal(t, "sns-1", id)
	assert.JSONEq(t, `{"reason":"assessment-recorded"}`, aws.ToString(api.input.Message))
	assert.Equal(t, "benchmark-refresh", aws.ToString(api.input.MessageAttributes["type"].StringValue))
}
