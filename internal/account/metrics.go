// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STK Addons Contributors

package account

import (
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Status labels for operation metrics.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusQueued  = "queued"
)

// Operation labels.
const (
	OpRegister       = "register"
	OpLogin          = "login"
	OpValidate       = "validate_session"
	OpResolve        = "resolve_session"
	OpPoll           = "poll"
	OpActivate       = "activate"
	OpResend         = "resend_verification"
	OpProfile        = "profile"
	OpGetUser        = "get_user"
	OpValidateFields = "validate_fields"
)

// Operations counts account operations by outcome.
// Use RegisterMetrics to register this with a Prometheus registry.
var Operations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "stkaddons_account_operations_total",
		Help: "Total number of account operations",
	},
	[]string{"operation", "status"},
)

// OperationDuration observes account operation latency.
// Use RegisterMetrics to register this with a Prometheus registry.
var OperationDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "stkaddons_account_operation_duration_seconds",
		Help:    "Account operation duration in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"operation"},
)

// Logins counts successful logins by STK client version.
// Use RegisterMetrics to register this with a Prometheus registry.
var Logins = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "stkaddons_logins_total",
		Help: "Total number of successful logins by client version",
	},
	[]string{"client_version"},
)

// VerificationMails counts verification emails by delivery outcome. Mail
// handed to a queue is counted as queued and again once the queue reports
// success or failure.
// Use RegisterMetrics to register this with a Prometheus registry.
var VerificationMails = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "stkaddons_verification_mails_total",
		Help: "Total number of verification emails by delivery status",
	},
	[]string{"status"},
)

// RegisterMetrics registers account metrics with the given registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(Operations)
	reg.MustRegister(OperationDuration)
	reg.MustRegister(Logins)
	reg.MustRegister(VerificationMails)
}

// RecordOperation records the outcome and duration of one operation. The
// status is "success" for a nil error and the lowercased account code
// otherwise.
func RecordOperation(operation string, err error, duration time.Duration) {
	Operations.WithLabelValues(operation, statusOf(err)).Inc()
	OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordLogin counts a successful login for the given client version label.
func RecordLogin(clientVersion string) {
	Logins.WithLabelValues(clientVersion).Inc()
}

// RecordVerificationMail counts the final outcome of a verification email.
func RecordVerificationMail(err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusFailed
	}
	VerificationMails.WithLabelValues(status).Inc()
}

// RecordVerificationMailQueued counts a verification email accepted by a
// queue that has not been delivered yet.
func RecordVerificationMailQueued() {
	VerificationMails.WithLabelValues(StatusQueued).Inc()
}

func statusOf(err error) string {
	if err == nil {
		return StatusSuccess
	}
	var ae *Error
	if errors.As(err, &ae) {
		return string(ae.Kind()) + ":" + strings.ToLower(string(ae.Code))
	}
	return string(KindDatabase)
}
