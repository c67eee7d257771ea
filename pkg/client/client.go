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
	"crypto/tls"
	"io"
	"sync"
	"time"

	"github.com/nuclio/sonarlint-client/pkg/analysis"
	"github.com/nuclio/sonarlint-client/pkg/clientconfig"
	"github.com/nuclio/sonarlint-client/pkg/rpc"
	"github.com/nuclio/sonarlint-client/pkg/version"

	"github.com/nuclio/errors"
	"github.com/nuclio/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/xid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

var ErrClientClosed = errors.New("Client is closed")

// Option customizes a client on creation
type Option func(*Client)

// WithDialOptions appends gRPC dial options, applied after the ones derived from the configuration
func WithDialOptions(dialOptions ...grpc.DialOption) Option {
	return func(c *Client) {
		c.extraDialOptions = append(c.extraDialOptions, dialOptions...)
	}
}

// WithMetricsRegisterer registers the client's metrics with the given registerer
func WithMetricsRegisterer(registerer prometheus.Registerer) Option {
	return func(c *Client) {
		c.metricsRegisterer = registerer
	}
}

// Client talks to a remote analysis daemon. it owns a single connection, shared by all calls
type Client struct {
	logger            logger.Logger
	configuration     *clientconfig.Configuration
	conn              *grpc.ClientConn
	extraDialOptions  []grpc.DialOption
	metricsRegisterer prometheus.Registerer
	metrics           *metrics

	lock   sync.RWMutex
	closed bool
}

// New creates a client. when configuration is nil, the default configuration (with environment
// overrides) is used. the connection is established lazily unless configuration.Dial.Block is set
func New(parentLogger logger.Logger,
	configuration *clientconfig.Configuration,
	options ...Option) (*Client, error) {
	var err error

	if configuration == nil {
		configuration = &clientconfig.Configuration{}
		if err := clientconfig.Resolve(configuration); err != nil {
			return nil, errors.Wrap(err, "Failed to resolve default configuration")
		}
	} else if err := configuration.Validate(); err != nil {
		return nil, errors.Wrap(err, "Invalid client configuration")
	}

	newClient := &Client{
		logger:        parentLogger.GetChild("client"),
		configuration: configuration,
	}

	for _, option := range options {
		option(newClient)
	}

	newClient.metrics, err = newMetrics(newClient.metricsRegisterer)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to create metrics")
	}

	dialOptions, err := newClient.resolveDialOptions()
	if err != nil {
		return nil, errors.Wrap(err, "Failed to resolve dial options")
	}

	if newClient.conn, err = newClient.dial(dialOptions); err != nil {
		return nil, errors.Wrapf(err, "Failed to connect to daemon at %s", configuration.Address)
	}

	newClient.logger.DebugWith("Created",
		"address", configuration.Address,
		"tls", configuration.TLS.Enabled,
		"block", configuration.Dial.Block,
		"version", version.Get().Label)

	return newClient, nil
}

// AnalyzeContent submits inline content for analysis and returns the stream of issues found
func (c *Client) AnalyzeContent(ctx context.Context,
	request *analysis.ContentAnalysisRequest) (*IssueStream, error) {
	if request == nil {
		return nil, errors.New("Content analysis request is required")
	}

	// prepare a copy, leaving the caller's request untouched
	preparedRequest := *request
	if err := preparedRequest.Prepare(); err != nil {
		return nil, errors.Wrap(err, "Invalid content analysis request")
	}

	return c.openIssueStream(ctx,
		rpc.AnalyzeContentStreamDesc,
		rpc.AnalyzeContentMethod,
		&preparedRequest,
		"language", preparedRequest.Language,
		"charset", preparedRequest.Charset,
		"contentLength", len(preparedRequest.Content))
}

// Analyze submits on-disk files for analysis and returns the stream of issues found.
// relative paths are resolved on this side, the daemon runs in its own working directory
func (c *Client) Analyze(ctx context.Context, request *analysis.FileAnalysisRequest) (*IssueStream, error) {
	if request == nil {
		return nil, errors.New("File analysis request is required")
	}

	preparedRequest := *request
	preparedRequest.Files = append([]analysis.InputFile(nil), request.Files...)

	if err := preparedRequest.Prepare(&analysis.FilePrepareOptions{
		WorkingDir:           c.configuration.WorkingDir,
		RequireExistingFiles: c.configuration.RequireExistingFiles,
	}); err != nil {
		return nil, errors.Wrap(err, "Invalid file analysis request")
	}

	return c.openIssueStream(ctx,
		rpc.AnalyzeStreamDesc,
		rpc.AnalyzeMethod,
		&preparedRequest,
		"files", len(preparedRequest.Files))
}

// GetRuleDetails returns the details of the rule with the given key
func (c *Client) GetRuleDetails(ctx context.Context, ruleKey analysis.RuleKey) (*analysis.RuleDetails, error) {
	if ruleKey.Key == "" {
		return nil, errors.New("Rule key is required")
	}

	if c.isClosed() {
		return nil, ErrClientClosed
	}

	callCtx, cancel := c.createCallContext(ctx)
	defer cancel()

	startTime := time.Now()
	ruleDetails := &analysis.RuleDetails{}

	err := rpc.Invoke(callCtx, c.conn, rpc.GetRuleDetailsMethod, &ruleKey, ruleDetails)
	c.metrics.observeCall(methodName(rpc.GetRuleDetailsMethod), status.Code(err), time.Since(startTime))

	if err != nil {
		return nil, errors.Wrapf(err, "Failed to get details of rule %s", ruleKey.Key)
	}

	return ruleDetails, nil
}

// StreamLogs subscribes to the daemon's log events until the stream is closed or ctx is done
func (c *Client) StreamLogs(ctx context.Context) (*LogStream, error) {
	if c.isClosed() {
		return nil, ErrClientClosed
	}

	// log streams are long lived, the call timeout doesn't apply
	streamCtx, cancel := context.WithCancel(ctx)

	stream, err := rpc.OpenServerStream(streamCtx, c.conn, rpc.StreamLogsStreamDesc, rpc.StreamLogsMethod, &rpc.Void{})
	if err != nil {
		cancel()
		c.metrics.observeCall(methodName(rpc.StreamLogsMethod), status.Code(err), 0)
		return nil, errors.Wrap(err, "Failed to open log stream")
	}

	return newLogStream(c.logger, stream, cancel), nil
}

// ForwardLogs streams the daemon's log events into targetLogger until ctx is done
func (c *Client) ForwardLogs(ctx context.Context, targetLogger logger.Logger) error {
	logStream, err := c.StreamLogs(ctx)
	if err != nil {
		return err
	}

	defer logStream.Close()

	return logStream.Forward(ctx, targetLogger)
}

// Close releases the connection. calls made afterwards fail with ErrClientClosed
func (c *Client) Close() error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true

	if err := c.conn.Close(); err != nil {
		return errors.Wrap(err, "Failed to close connection")
	}

	c.logger.DebugWith("Closed", "address", c.configuration.Address)

	return nil
}

func (c *Client) openIssueStream(ctx context.Context,
	streamDesc *grpc.StreamDesc,
	method string,
	request analysis.WireMessage,
	logVars ...interface{}) (*IssueStream, error) {

	if c.isClosed() {
		return nil, ErrClientClosed
	}

	requestID := xid.New().String()
	callCtx, cancel := c.createCallContext(ctx)
	startTime := time.Now()

	c.logger.DebugWith("Opening issue stream",
		append([]interface{}{"method", methodName(method), "requestID", requestID}, logVars...)...)

	stream, err := rpc.OpenServerStream(callCtx, c.conn, streamDesc, method, request)
	if err != nil {
		cancel()
		c.metrics.observeCall(methodName(method), status.Code(err), time.Since(startTime))

		c.logger.WarnWith("Failed to open issue stream",
			"method", methodName(method),
			"requestID", requestID,
			"err", err.Error())

		return nil, errors.Wrapf(err, "Failed to open %s stream", methodName(method))
	}

	return newIssueStream(requestID, methodName(method), c.logger, c.metrics, stream, cancel, startTime), nil
}

func (c *Client) createCallContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if callTimeout := c.configuration.GetCallTimeout(); callTimeout > 0 {
		return context.WithTimeout(ctx, callTimeout)
	}

	return context.WithCancel(ctx)
}

func (c *Client) isClosed() bool {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.closed
}

func (c *Client) resolveDialOptions() ([]grpc.DialOption, error) {
	transportCredentials, err := c.resolveTransportCredentials()
	if err != nil {
		return nil, err
	}

	userAgent := c.configuration.UserAgent
	if userAgent == "" {
		userAgent = clientconfig.DefaultUserAgent
	}

	dialOptions := []grpc.DialOption{
		grpc.WithTransportCredentials(transportCredentials),
		grpc.WithUserAgent(version.UserAgent(userAgent)),
	}

	if c.configuration.MaxReceiveMessageSizeBytes > 0 {
		dialOptions = append(dialOptions,
			grpc.WithDefaultCallOptions(grpc.MaxCallRecvMsgSize(c.configuration.MaxReceiveMessageSizeBytes)))
	}

	return append(dialOptions, c.extraDialOptions...), nil
}

func (c *Client) resolveTransportCredentials() (credentials.TransportCredentials, error) {
	tlsConfiguration := c.configuration.TLS

	if !tlsConfiguration.Enabled {
		return insecure.NewCredentials(), nil
	}

	if tlsConfiguration.CACertPath != "" {
		transportCredentials, err := credentials.NewClientTLSFromFile(tlsConfiguration.CACertPath,
			tlsConfiguration.ServerNameOverride)
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to load CA certificate %s", tlsConfiguration.CACertPath)
		}

		return transportCredentials, nil
	}

	// system roots
	return credentials.NewTLS(&tls.Config{
		ServerName: tlsConfiguration.ServerNameOverride,
		MinVersion: tls.VersionTLS12,
	}), nil
}

func (c *Client) dial(dialOptions []grpc.DialOption) (*grpc.ClientConn, error) {
	if !c.configuration.Dial.Block {
		return grpc.Dial(c.configuration.Address, dialOptions...)
	}

	ctx := context.Background()
	if dialTimeout := c.configuration.GetDialTimeout(); dialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, dialTimeout)
		defer cancel()
	}

	c.logger.DebugWith("Waiting for daemon connection", "address", c.configuration.Address)

	return grpc.DialContext(ctx, c.configuration.Address, append(dialOptions, grpc.WithBlock())...)
}

// ErrorCode returns the gRPC code an error returned by the client carries, looking through wrapping.
// io.EOF (normal end of an issue stream) is codes.OK
func ErrorCode(err error) codes.Code {
	if err == nil || err == io.EOF {
		return codes.OK
	}

	if errorStatus, ok := status.FromError(err); ok {
		return errorStatus.Code()
	}

	return status.Code(errors.RootCause(err))
}
