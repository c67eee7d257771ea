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

package rpctest

import (
	"context"
	"net"
	"sync"

	"github.com/nuclio/sonarlint-client/pkg/analysis"
	"github.com/nuclio/sonarlint-client/pkg/rpc"

	"github.com/nuclio/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

// Address is a placeholder address for clients of an in-memory daemon, the dialer ignores it
const Address = "bufnet:0"

const bufferSize = 1024 * 1024

type ContentAnalyzer func(request *analysis.ContentAnalysisRequest, sender rpc.IssueSender) error
type FileAnalyzer func(request *analysis.FileAnalysisRequest, sender rpc.IssueSender) error

// Daemon is an in-memory analysis daemon. handlers must be set before Start
type Daemon struct {
	ContentAnalyzer ContentAnalyzer
	FileAnalyzer    FileAnalyzer
	Rules           map[string]*analysis.RuleDetails
	LogEvents       []*analysis.LogEvent

	// keep the log stream open after LogEvents were sent, until the caller goes away
	HoldLogStream bool

	logger   logger.Logger
	listener *bufconn.Listener
	server   *grpc.Server

	lock            sync.Mutex
	contentRequests []*analysis.ContentAnalysisRequest
	fileRequests    []*analysis.FileAnalysisRequest
	ruleLookups     []string
}

func NewDaemon(parentLogger logger.Logger) *Daemon {
	return &Daemon{
		logger: parentLogger.GetChild("daemon"),
		Rules:  map[string]*analysis.RuleDetails{},
	}
}

// Start serves the daemon in the background
func (d *Daemon) Start() {
	d.listener = bufconn.Listen(bufferSize)
	d.server = grpc.NewServer(grpc.ForceServerCodec(rpc.Codec{}))

	rpc.RegisterStandaloneServer(d.server, d)

	go func() {
		if err := d.server.Serve(d.listener); err != nil {
			d.logger.WarnWith("Daemon stopped serving", "err", err.Error())
		}
	}()
}

// Stop aborts running calls and closes the listener
func (d *Daemon) Stop() {
	d.server.Stop()
}

// DialOptions returns the options a client needs to reach the daemon at Address
func (d *Daemon) DialOptions() []grpc.DialOption {
	return []grpc.DialOption{
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return d.listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
}

func (d *Daemon) ContentRequests() []*analysis.ContentAnalysisRequest {
	d.lock.Lock()
	defer d.lock.Unlock()

	return append([]*analysis.ContentAnalysisRequest(nil), d.contentRequests...)
}

func (d *Daemon) FileRequests() []*analysis.FileAnalysisRequest {
	d.lock.Lock()
	defer d.lock.Unlock()

	return append([]*analysis.FileAnalysisRequest(nil), d.fileRequests...)
}

func (d *Daemon) RuleLookups() []string {
	d.lock.Lock()
	defer d.lock.Unlock()

	return append([]string(nil), d.ruleLookups...)
}

func (d *Daemon) Analyze(request *analysis.FileAnalysisRequest, sender rpc.IssueSender) error {
	d.lock.Lock()
	d.fileRequests = append(d.fileRequests, request)
	d.lock.Unlock()

	d.logger.DebugWith("Received file analysis request", "files", len(request.Files))

	if d.FileAnalyzer == nil {
		return status.Error(codes.Unimplemented, "File analysis is not supported")
	}

	return d.FileAnalyzer(request, sender)
}

func (d *Daemon) AnalyzeContent(request *analysis.ContentAnalysisRequest, sender rpc.IssueSender) error {
	d.lock.Lock()
	d.contentRequests = append(d.contentRequests, request)
	d.lock.Unlock()

	d.logger.DebugWith("Received content analysis request",
		"language", request.Language,
		"charset", request.Charset)

	if d.ContentAnalyzer == nil {
		return status.Error(codes.Unimplemented, "Content analysis is not supported")
	}

	return d.ContentAnalyzer(request, sender)
}

func (d *Daemon) GetRuleDetails(ctx context.Context, ruleKey *analysis.RuleKey) (*analysis.RuleDetails, error) {
	d.lock.Lock()
	d.ruleLookups = append(d.ruleLookups, ruleKey.Key)
	d.lock.Unlock()

	ruleDetails, found := d.Rules[ruleKey.Key]
	if !found {
		return nil, status.Errorf(codes.NotFound, "Rule %s does not exist", ruleKey.Key)
	}

	return ruleDetails, nil
}

func (d *Daemon) StreamLogs(request *rpc.Void, sender rpc.LogSender) error {
	for _, logEvent := range d.LogEvents {
		if err := sender.Send(logEvent); err != nil {
			return err
		}
	}

	if d.HoldLogStream {
		<-sender.Context().Done()
		return status.FromContextError(sender.Context().Err()).Err()
	}

	return nil
}

// StreamIssues returns an analyzer that sends the given issues and then ends the call with
// terminalErr (nil for normal completion)
func StreamIssues(issues []*analysis.Issue, terminalErr error) func(sender rpc.IssueSender) error {
	return func(sender rpc.IssueSender) error {
		for _, issue := range issues {
			if err := sender.Send(issue); err != nil {
				return err
			}
		}

		return terminalErr
	}
}

// ContentIssues adapts StreamIssues to a content analyzer
func ContentIssues(issues []*analysis.Issue, terminalErr error) ContentAnalyzer {
	streamer := StreamIssues(issues, terminalErr)

	return func(_ *analysis.ContentAnalysisRequest, sender rpc.IssueSender) error {
		return streamer(sender)
	}
}

// FileIssues adapts StreamIssues to a file analyzer
func FileIssues(issues []*analysis.Issue, terminalErr error) FileAnalyzer {
	streamer := StreamIssues(issues, terminalErr)

	return func(_ *analysis.FileAnalysisRequest, sender rpc.IssueSender) error {
		return streamer(sender)
	}
}
