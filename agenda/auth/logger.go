package auth

import (
	"github.com/sirupsen/logrus"

	"github.com/Termicotra/agendamiento/log"
)

const (
	// operation events
	opFailed    = "OperationFailed"
	opStarted   = "OperationStarted"
	opSucceeded = "OperationSucceeded"
	// session events
	sessionOpened  = "SessionOpened"
	sessionClosed  = "SessionClosed"
	sessionExpired = "SessionExpired"
)

type event struct {
	username string
	op       string
	help     string
	err      error
}

func mergeNonEmpty(data event) logrus.FieldLogger {
	var entry = log.Auth

	if data.username != "" {
		entry = entry.WithField("username", data.username)
	}
	if data.op != "" {
		entry = entry.WithField("op", data.op)
	}
	if data.err != nil {
		entry = entry.WithError(data.err)
	}

	return entry
}

func operationStarted(data event) {
	mergeNonEmpty(data).WithField("event", opStarted).Print(data.help)
}

func operationSucceeded(data event) {
	mergeNonEmpty(data).WithField("event", opSucceeded).Print(data.help)
}

func operationFailed(data event) {
	mergeNonEmpty(data).WithField("event", opFailed).Warn(data.help)
}

func sessionEvent(name string, data event) {
	mergeNonEmpty(data).WithField("event", name).Print(data.help)
}
