package notify

import (
	"context"
	"errors"
	"testing"

	"homecook/globals"
	"homecook/models"
	"homecook/store"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	input *ses.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = in
	return &ses.SendEmailOutput{}, f.err
}

type recordingMailer struct {
	sent []Message
}

func (m *recordingMailer) Send(_ context.Context, msg Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

func TestSESMailerBuildsInput(t *testing.T) {
	api := &fakeSES{}
	m := &SESMailer{client: api, sender: "orders@homecook.test"}

	err := m.Send(context.Background(), Message{To: "cook@example.com", Subject: "hi", HTML: "<p>x</p>", Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, "orders@homecook.test", aws.ToString(api.input.Source))
	assert.Equal(t, []string{"cook@example.com"}, api.input.Destination.ToAddresses)
	assert.Equal(t, "hi", aws.ToString(api.input.Message.Subject.Data))

	api.err = errors.New("throttled")
	assert.Error(t, m.Send(context.Background(), Message{To: "cook@example.com"}))
	assert.Error(t, m.Send(context.Background(), Message{}))
}

func TestNewSESMailerNeedsSender(t *testing.T) {
	_, err := NewSESMailer(context.Background(), globals.MailConfig{AWSRegion: "eu-central-1"})
	assert.Error(t, err)
}

func TestCookNotifier(t *testing.T) {
	ctx := context.Background()
	users := store.NewMemory().Store().Users
	require.NoError(t, users.Insert(ctx, &models.User{ID: "cookX", Name: "Ayse", Email: "ayse@example.com", Role: models.RoleCook}))
	mailer := &recordingMailer{}
	n := NewCookNotifier(users, mailer)

	require.NoError(t, n.Handle(ctx, models.OrderEvent{Type: "order.created", OrderID: "o1", CookID: "cookX", Total: 20, Items: 1}))
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "ayse@example.com", mailer.sent[0].To)
	assert.Contains(t, mailer.sent[0].Text, "Total: 20.00")

	require.NoError(t, n.Handle(ctx, models.OrderEvent{Type: "order.status", OrderID: "o1", CookID: "cookX"}))
	assert.Len(t, mailer.sent, 1)

	assert.ErrorIs(t, n.Handle(ctx, models.OrderEvent{Type: "order.created", CookID: "ghost"}), store.ErrNotFound)
}
