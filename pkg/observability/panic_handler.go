package observability

import (
	"fmt"
	"runtime/debug"

	"github.com/sirupsen/logrus"
)

// RecoverPanic recovers from a panic and logs it with the stack trace.
// It must be called directly in a defer statement. The panic is not re-raised.
//
//	go func() {
//	    defer observability.RecoverPanic(logger, "snapshot job")
//	    ...
//	}()
func RecoverPanic(logger logrus.FieldLogger, where string) {
	if r := recover(); r != nil {
		logPanic(logger, where, r)
	}
}

// RecoverToError converts a recovered panic into an error stored in errp.
//
//	func compute() (v int64, err error) {
//	    defer observability.RecoverToError(logger, "gauge", &err)
//	    ...
//	}
func RecoverToError(logger logrus.FieldLogger, where string, errp *error) {
	if r := recover(); r != nil {
		logPanic(logger, where, r)
		if errp != nil {
			*errp = fmt.Errorf("panic in %s: %v", where, r)
		}
	}
}

func logPanic(logger logrus.FieldLogger, where string, r interface{}) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	logger.WithFields(logrus.Fields{
		"panic":   r,
		"stack":   string(debug.Stack()),
		"context": where,
	}).Error("PANIC recovered")
}
