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
	"sync"
	"time"

	"github.com/nuclio/sonarlint-client/pkg/analysis"

	"github.com/nuclio/errors"
	"github.com/nuclio/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// StreamHandlers observe an issue stream: every issue in delivery order, then exactly one of
// OnEnd (normal completion) or OnStatus (failure). nil handlers are skipped
type StreamHandlers struct {
	OnIssue  func(issue *analysis.Issue)
	OnEnd    func()
	OnStatus func(streamStatus *status.Status)
}

// IssueStream is the lazy, finite, non-restartable result of an analysis. it is meant to be
// consumed by one goroutine; Close may be called from any goroutine
type IssueStream struct {
	id        string
	method    string
	logger    logger.Logger
	metrics   *metrics
	stream    grpc.ClientStream
	cancel    context.CancelFunc
	startTime time.Time

	lock           sync.Mutex
	issueCount     int
	consumed       bool
	terminated     bool
	terminalErr    error
	terminalStatus *status.Status
}

func newIssueStream(id string,
	method string,
	parentLogger logger.Logger,
	metricsInstance *metrics,
	stream grpc.ClientStream,
	cancel context.CancelFunc,
	startTime time.Time) *IssueStream {
	return &IssueStream{
		id:        id,
		method:    method,
		logger:    parentLogger,
		metrics:   metricsInstance,
		stream:    stream,
		cancel:    cancel,
		startTime: startTime,
	}
}

// ID returns the request ID of the call, as logged by the client
func (s *IssueStream) ID() string {
	return s.id
}

// Next blocks until the next issue arrives. it returns io.EOF once the daemon completed the
// analysis, or the terminal status error (see status.FromError) if the call failed. once
// terminated, every call returns the same result
func (s *IssueStream) Next() (*analysis.Issue, error) {
	s.lock.Lock()
	if s.terminated {
		defer s.lock.Unlock()
		return nil, s.terminalErr
	}
	s.lock.Unlock()

	issue := &analysis.Issue{}
	recvErr := s.stream.RecvMsg(issue)

	s.lock.Lock()
	defer s.lock.Unlock()

	// closed while receiving, drop whatever arrived
	if s.terminated {
		return nil, s.terminalErr
	}

	if recvErr != nil {
		s.terminate(recvErr)
		return nil, s.terminalErr
	}

	s.issueCount++
	s.metrics.observeIssue(s.method)

	return issue, nil
}

// Status returns the terminal status of the call: codes.OK when it completed normally, nil while
// it is still running
func (s *IssueStream) Status() *status.Status {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.terminalStatus
}

// IssueCount returns the number of issues received so far
func (s *IssueStream) IssueCount() int {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.issueCount
}

// Consume drives the stream to its end, dispatching to handlers. it returns nil on normal
// completion and the terminal status error otherwise. a stream can be consumed once
func (s *IssueStream) Consume(handlers StreamHandlers) error {
	s.lock.Lock()
	if s.consumed {
		s.lock.Unlock()
		return errors.New("Issue stream was already consumed")
	}
	s.consumed = true
	s.lock.Unlock()

	for {
		issue, err := s.Next()
		if err == nil {
			if handlers.OnIssue != nil {
				handlers.OnIssue(issue)
			}

			continue
		}

		if err == io.EOF {
			if handlers.OnEnd != nil {
				handlers.OnEnd()
			}

			return nil
		}

		if handlers.OnStatus != nil {
			handlers.OnStatus(s.Status())
		}

		return err
	}
}

// Collect drains the stream. on failure, the issues received before it are returned with the error
func (s *IssueStream) Collect() ([]*analysis.Issue, error) {
	var issues []*analysis.Issue

	err := s.Consume(StreamHandlers{
		OnIssue: func(issue *analysis.Issue) {
			issues = append(issues, issue)
		},
	})

	return issues, err
}

// Close cancels the call if it is still running. Next then returns a codes.Canceled status error
func (s *IssueStream) Close() {
	s.cancel()

	s.lock.Lock()
	defer s.lock.Unlock()

	if !s.terminated {
		s.terminate(status.Error(codes.Canceled, "Issue stream closed"))
	}
}

// terminate records the terminal result. must be called with the lock held
func (s *IssueStream) terminate(err error) {
	s.terminated = true

	if err == io.EOF {
		s.terminalErr = io.EOF
		s.terminalStatus = status.New(codes.OK, "")
	} else {
		s.terminalStatus = status.Convert(err)
		s.terminalErr = s.terminalStatus.Err()
	}

	// releases the call's resources
	s.cancel()

	duration := time.Since(s.startTime)
	s.metrics.observeCall(s.method, s.terminalStatus.Code(), duration)

	logVars := []interface{}{
		"method", s.method,
		"requestID", s.id,
		"issues", s.issueCount,
		"code", s.terminalStatus.Code().String(),
		"duration", duration.String(),
	}

	if s.terminalStatus.Code() == codes.OK {
		s.logger.DebugWith("Issue stream completed", logVars...)
	} else {
		s.logger.WarnWith("Issue stream failed", append(logVars, "message", s.terminalStatus.Message())...)
	}
}
