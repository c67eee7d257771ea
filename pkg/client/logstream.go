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

package client

import (
	"context"
	"io"
	"strings"

	"github.com/nuclio/sonarlint-client/pkg/analysis"

	"github.com/nuclio/errors"
	"github.com/nuclio/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// LogStream carries the daemon's log events
type LogStream struct {
	logger logger.Logger
	stream grpc.ClientStream
	cancel context.CancelFunc
}

func newLogStream(parentLogger logger.Logger, stream grpc.ClientStream, cancel context.CancelFunc) *LogStream {
	return &LogStream{
		logger: parentLogger.GetChild("logs"),
		stream: stream,
		cancel: cancel,
	}
}

// Next blocks until the next log event. returns io.EOF when the daemon ends the stream
func (ls *LogStream) Next() (*analysis.LogEvent, error) {
	logEvent := &analysis.LogEvent{}
	if err := ls.stream.RecvMsg(logEvent); err != nil {
		return nil, err
	}

	return logEvent, nil
}

// Forward writes every log event to targetLogger, at the event's level, until the stream ends or
// ctx is done (both return nil)
func (ls *LogStream) Forward(ctx context.Context, targetLogger logger.Logger) error {
	for {
		logEvent, err := ls.Next()
		if err != nil {
			if err == io.EOF {
				return nil
			}

			if ctx.Err() != nil && status.Code(err) == codes.Canceled {
				ls.logger.Debug("Log stream cancelled")
				return nil
			}

			return errors.Wrap(err, "Failed to receive log event")
		}

		resolveLogFunc(targetLogger, logEvent)(logEvent.Message, "source", "daemon")
	}
}

// Close cancels the stream
func (ls *LogStream) Close() {
	ls.cancel()
}

func resolveLogFunc(targetLogger logger.Logger, logEvent *analysis.LogEvent) func(format interface{}, vars ...interface{}) {
	if logEvent.IsDebug {
		return targetLogger.DebugWith
	}

	switch strings.ToLower(logEvent.Level) {
	case "error", "critical", "fatal":
		return targetLogger.ErrorWith
	case "warning", "warn":
		return targetLogger.WarnWith
	case "info":
		return targetLogger.InfoWith
	default:
		return targetLogger.DebugWith
	}
}
