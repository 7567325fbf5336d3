package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMailerRequiresCredentials(t *testing.T) {
	_, err := NewMailer(MailerOptions{Host: "smtp.example.com", Port: 587})
	assert.Error(t, err)

	_, err = NewMailer(MailerOptions{User: "a@b.c", Pass: "x", Port: 587})
	assert.Error(t, err, "host is required")
}

func TestNewMailerDefaultsFromToUser(t *testing.T) {
	m, err := NewMailer(MailerOptions{
		Host: "smtp.example.com",
		Port: 587,
		User: "bot@example.com",
		Pass: "hunter2",
	})
	require.NoError(t, err)
	assert.Equal(t, "bot@example.com", m.from)

	m, err = NewMailer(MailerOptions{
		Host: "smtp.example.com",
		Port: 465,
		User: "bot@example.com",
		Pass: "hunter2",
		From: "alerts@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "alerts@example.com", m.from)
}
