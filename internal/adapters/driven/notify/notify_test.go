package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bookingest/internal/core/domain"
	"github.com/custodia-labs/bookingest/internal/core/ports/driven"
	"github.com/custodia-labs/bookingest/internal/logger"
)

type sentMail struct {
	addr string
	auth smtp.Auth
	from string
	to   []string
	msg  string
}

func newTestNotifier(t *testing.T, cfg MailConfig, fail error) (*MailNotifier, *[]sentMail) {
	t.Helper()
	n, err := NewMailNotifier(cfg)
	require.NoError(t, err)
	var sent []sentMail
	n.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		sent = append(sent, sentMail{addr: addr, auth: a, from: from, to: to, msg: string(msg)})
		return fail
	}
	n.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return n, &sent
}

func TestNewMailNotifier_Validation(t *testing.T) {
	_, err := NewMailNotifier(MailConfig{From: "a@b.test"})
	assert.Error(t, err)

	_, err = NewMailNotifier(MailConfig{Host: "smtp.test"})
	assert.Error(t, err)

	n, err := NewMailNotifier(MailConfig{Host: "smtp.test", From: "a@b.test"})
	require.NoError(t, err)
	assert.Equal(t, 25, n.cfg.Port)
}

func TestMailNotifier_NotifySuccess(t *testing.T) {
	n, sent := newTestNotifier(t, MailConfig{Host: "smtp.test", Port: 2525, From: "noreply@books.test"}, nil)

	err := n.NotifySuccess(context.Background(), driven.SuccessNotice{
		Creator:   domain.Creator{Name: "Ada", Email: "ada@example.test"},
		VolumePID: "sqn75",
		Label:     "Book of Hours",
		AdminURL:  "https://books.test/admin/volume/sqn75/change/",
		ViewerURL: "https://books.test/volume/sqn75",
		Pages:     10,
		Warnings:  []string{"Canvas sqn75_0002.tiff - OcrParseError: bad"},
	})

	require.NoError(t, err)
	require.Len(t, *sent, 1)
	mail := (*sent)[0]
	assert.Equal(t, "smtp.test:2525", mail.addr)
	assert.Nil(t, mail.auth)
	assert.Equal(t, "noreply@books.test", mail.from)
	assert.Equal(t, []string{"ada@example.test"}, mail.to)
	assert.Contains(t, mail.msg, "Subject: [bookingest] Ingest complete: sqn75\r\n")
	assert.Contains(t, mail.msg, "Date: Fri, 02 Jan 2026 03:04:05 +0000\r\n")
	assert.Contains(t, mail.msg, "Volume sqn75 (Book of Hours) has been ingested with 10 pages.")
	assert.Contains(t, mail.msg, "https://books.test/admin/volume/sqn75/change/")
	assert.Contains(t, mail.msg, "https://books.test/volume/sqn75")
	assert.Contains(t, mail.msg, "Canvas sqn75_0002.tiff - OcrParseError: bad")
}

func TestMailNotifier_NotifyFailure(t *testing.T) {
	n, sent := newTestNotifier(t, MailConfig{Host: "smtp.test", From: "x@y.test", Username: "u", Password: "p"}, nil)

	err := n.NotifyFailure(context.Background(), driven.FailureNotice{
		Creator: domain.Creator{Email: "ada@example.test"},
		Bundle:  "bad.zip",
		Error:   "invalid bundle: zip: not a valid zip file",
	})

	require.NoError(t, err)
	require.Len(t, *sent, 1)
	assert.NotNil(t, (*sent)[0].auth)
	assert.Contains(t, (*sent)[0].msg, "Subject: [bookingest] Failed: Ingest bad.zip\r\n")
	assert.Contains(t, (*sent)[0].msg, "invalid bundle: zip: not a valid zip file")
}

func TestMailNotifier_NoRecipient(t *testing.T) {
	n, sent := newTestNotifier(t, MailConfig{Host: "smtp.test", From: "x@y.test"}, nil)

	require.NoError(t, n.NotifyFailure(context.Background(), driven.FailureNotice{Bundle: "b.zip"}))

	assert.Empty(t, *sent)
}

func TestMailNotifier_SendError(t *testing.T) {
	n, _ := newTestNotifier(t, MailConfig{Host: "smtp.test", From: "x@y.test"}, errors.New("554 rejected"))

	err := n.NotifyFailure(context.Background(), driven.FailureNotice{
		Creator: domain.Creator{Email: "ada@example.test"},
		Bundle:  "b.zip",
	})

	assert.ErrorContains(t, err, "554 rejected")
}

func TestSubjects(t *testing.T) {
	assert.Equal(t, "[bookingest] Ingest complete: v1", SuccessSubject("v1"))
	assert.Equal(t, "[bookingest] Failed: Ingest v1.zip", FailureSubject("v1.zip"))
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(os.Stderr)

	n := LogNotifier{}
	require.NoError(t, n.NotifySuccess(context.Background(), driven.SuccessNotice{VolumePID: "v1", Pages: 2}))
	require.NoError(t, n.NotifyFailure(context.Background(), driven.FailureNotice{Bundle: "b.zip", Error: "boom"}))

	out := buf.String()
	assert.Contains(t, out, "Ingest complete: v1")
	assert.Contains(t, out, "pages=2")
	assert.Contains(t, out, "Failed: Ingest b.zip")
	assert.Contains(t, out, "error=boom")
}

func TestIndexWebhook(t *testing.T) {
	var got []reindexRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var req reindexRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		got = append(got, req)
		if req.PID == "broken" {
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	w := NewIndexWebhook(srv.URL, 0)
	ctx := context.Background()

	require.NoError(t, w.ReindexVolume(ctx, "v1"))
	require.NoError(t, w.ReindexPage(ctx, "v1_0001.tiff"))
	assert.ErrorContains(t, w.ReindexPage(ctx, "broken"), "status 502")

	assert.Equal(t, []reindexRequest{
		{Type: "volume", PID: "v1"},
		{Type: "page", PID: "v1_0001.tiff"},
		{Type: "page", PID: "broken"},
	}, got)
}
