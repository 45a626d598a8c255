// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STK Addons Contributors

package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stkaddons/stkaddons/pkg/errutil"
)

func validMessage() Message {
	return Message{
		From:     "noreply@stkaddons.test",
		To:       []string{"racer@example.com"},
		Subject:  "Hello",
		TextBody: "body",
	}
}

func TestMessage_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m *Message)
	}{
		{"no recipients", func(m *Message) { m.To = nil }},
		{"blank recipient", func(m *Message) { m.To = []string{" "} }},
		{"header injection in recipient", func(m *Message) { m.To = []string{"a@b.c\r\nBcc: x@y.z"} }},
		{"header injection in subject", func(m *Message) { m.Subject = "hi\nBcc: x@y.z" }},
		{"no body", func(m *Message) { m.TextBody = "" }},
	}

	assert.NoError(t, validMessage().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := validMessage()
			tt.mutate(&msg)
			err := msg.Validate()
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, "MAIL_INVALID_MESSAGE")
		})
	}
}

func TestLogSender_Send(t *testing.T) {
	var buf bytes.Buffer
	sender := NewLogSender(slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, sender.Send(context.Background(), validMessage()))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "racer@example.com", entry["to"])
	assert.Equal(t, "Hello", entry["subject"])

	assert.Error(t, sender.Send(context.Background(), Message{}))
}
