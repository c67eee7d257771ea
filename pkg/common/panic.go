/*
Copyright 2024 The Nuclio Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package common

import (
	"context"
	"fmt"

	"github.com/nuclio/errors"
	"github.com/nuclio/logger"
)

// LogPanic logs a recovered panic along with the action that caused it and its call stack
func LogPanic(ctx context.Context,
	loggerInstance logger.Logger,
	actionName string,
	args []interface{},
	callStack []byte,
	recoveredErr interface{}) {

	logArgs := []interface{}{
		"action", actionName,
		"err", fmt.Sprintf("%v", recoveredErr),
		"stack", string(callStack),
	}

	if len(args) > 0 {
		logArgs = append(logArgs, "args", args)
	}

	if ctx != nil && ctx.Err() != nil {
		logArgs = append(logArgs, "ctxErr", ctx.Err().Error())
	}

	loggerInstance.ErrorWith("Panic caught", logArgs...)
}

// ErrorFromRecoveredError converts a value returned by recover() to an error
func ErrorFromRecoveredError(recoveredErr interface{}) error {
	switch typedErr := recoveredErr.(type) {
	case error:
		return errors.Wrap(typedErr, "Recovered from panic")
	case string:
		return errors.New(typedErr)
	default:
		return errors.Errorf("Recovered from panic: %v", typedErr)
	}
}
