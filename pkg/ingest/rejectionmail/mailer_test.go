package rejectionmail

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-ingest/pkg/ingest"
)

type sent struct {
	to, subject, body string
}

type recordingSender struct {
	sent []sent
	err  error
}

func (s *recordingSender) Send(ctx context.Context, to, subject, body string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sent{to, subject, body})
	return nil
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		msg  ingest.Message
		want ingest.RejectionRecord
	}{
		{
			name: "json body",
			msg:  ingest.Message{Body: `{"fileName":"malware.exe","errorMessage":"bad type"}`},
			want: ingest.RejectionRecord{Key: "malware.exe", Reason: "bad type"},
		},
		{
			name: "attributes only",
			msg: ingest.Message{Body: "rejected", Attributes: map[string]string{
				ingest.AttrFileName:     "doc.pdf",
				ingest.AttrErrorMessage: "not an image",
			}},
			want: ingest.RejectionRecord{Key: "doc.pdf", Reason: "not an image"},
		},
		{
			name: "body missing reason falls back to attribute",
			msg: ingest.Message{Body: `{"fileName":"a.gif"}`, Attributes: map[string]string{
				ingest.AttrErrorMessage: "gif not allowed",
			}},
			want: ingest.RejectionRecord{Key: "a.gif", Reason: "gif not allowed"},
		},
		{
			name: "sns wrapped",
			msg: ingest.Message{Body: `{"Type":"Notification","MessageId":"1","Message":"{\"fileName\":\"x.bmp\"}",` +
				`"MessageAttributes":{"ErrorMessage":{"Type":"String","Value":"bmp"}}}`},
			want: ingest.RejectionRecord{Key: "x.bmp", Reason: "bmp"},
		},
		{
			name: "embedded sqs-shaped attributes",
			msg: ingest.Message{Body: `{"MessageAttributes":{` +
				`"FileName":{"DataType":"String","StringValue":"setup.exe"},` +
				`"ErrorMessage":{"DataType":"String","StringValue":"Invalid file type."}}}`},
			want: ingest.RejectionRecord{Key: "setup.exe", Reason: "Invalid file type."},
		},
		{
			name: "embedded attributes win over host attributes",
			msg: ingest.Message{
				Body:       `{"MessageAttributes":{"FileName":{"DataType":"String","StringValue":"inner.exe"}}}`,
				Attributes: map[string]string{ingest.AttrFileName: "outer.exe", ingest.AttrErrorMessage: "outer reason"},
			},
			want: ingest.RejectionRecord{Key: "inner.exe", Reason: "outer reason"},
		},
		{
			name: "garbage",
			msg:  ingest.Message{Body: `{not json`},
			want: ingest.RejectionRecord{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.msg))
		})
	}
}

func TestRender(t *testing.T) {
	t.Run("AllFields", func(t *testing.T) {
		n := Render(ingest.RejectionRecord{Key: "malware.exe", Reason: "bad type"})
		assert.Equal(t, "File Upload Rejection", n.Subject)
		assert.Equal(t, `The upload of file "malware.exe" was rejected. Reason: bad type`, n.Body)
	})

	t.Run("Defaults", func(t *testing.T) {
		n := Render(ingest.RejectionRecord{})
		assert.Equal(t, `The upload of file "unknown file" was rejected. Reason: Invalid file type.`, n.Body)
	})
}

func TestMailer_HandleBatch(t *testing.T) {
	sender := &recordingSender{}
	m, err := New(sender, "ops@example.com", nil)
	require.NoError(t, err)

	result := m.HandleBatch(context.Background(), []ingest.Message{
		{ID: "1", Body: `{"fileName":"a.exe","errorMessage":"bad"}`},
		{ID: "2", Body: `{"fileName":"b.exe"}`},
	})

	assert.Equal(t, 2, result.Succeeded)
	assert.Empty(t, result.Failures)
	require.Len(t, sender.sent, 2)
	assert.Equal(t, "ops@example.com", sender.sent[0].to)
	assert.Contains(t, sender.sent[1].body, "Invalid file type.")
}

func TestMailer_SendFailureIsNotRetryable(t *testing.T) {
	m, err := New(&recordingSender{err: errors.New("throttled")}, "ops@example.com", nil)
	require.NoError(t, err)

	result := m.HandleBatch(context.Background(), []ingest.Message{{ID: "1", Body: `{"fileName":"a.exe"}`}})

	require.Len(t, result.Failures, 1)
	assert.Equal(t, "a.exe", result.Failures[0].Key)
	assert.False(t, result.Failures[0].Retryable())
	assert.Empty(t, result.RetryableIDs())

	var notifyErr *ingest.NotifyError
	assert.ErrorAs(t, result.Failures[0].Err, &notifyErr)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, "ops@example.com", nil)
	assert.EqualError(t, err, "sender is required")

	_, err = New(&recordingSender{}, "", nil)
	assert.EqualError(t, err, "recipient is required")
}
