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

package rpc

import (
	"context"

	"github.com/nuclio/sonarlint-client/pkg/analysis"

	"google.golang.org/grpc"
)

const ServiceName = "sonarlint.StandaloneSonarLint"

const (
	AnalyzeMethod        = "/" + ServiceName + "/Analyze"
	AnalyzeContentMethod = "/" + ServiceName + "/AnalyzeContent"
	GetRuleDetailsMethod = "/" + ServiceName + "/GetRuleDetails"
	StreamLogsMethod     = "/" + ServiceName + "/StreamLogs"
)

var (
	AnalyzeStreamDesc = &grpc.StreamDesc{
		StreamName:    "Analyze",
		ServerStreams: true,
	}
	AnalyzeContentStreamDesc = &grpc.StreamDesc{
		StreamName:    "AnalyzeContent",
		ServerStreams: true,
	}
	StreamLogsStreamDesc = &grpc.StreamDesc{
		StreamName:    "StreamLogs",
		ServerStreams: true,
	}
)

// CallOptions returns the options every call to the daemon carries
func CallOptions(extraOptions ...grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.ForceCodec(Codec{})}, extraOptions...)
}

// OpenServerStream starts a server streaming call: sends the single request and half closes
func OpenServerStream(ctx context.Context,
	conn grpc.ClientConnInterface,
	streamDesc *grpc.StreamDesc,
	method string,
	request analysis.WireMessage,
	options ...grpc.CallOption) (grpc.ClientStream, error) {

	stream, err := conn.NewStream(ctx, streamDesc, method, CallOptions(options...)...)
	if err != nil {
		return nil, err
	}

	if err := stream.SendMsg(request); err != nil {
		return nil, err
	}

	if err := stream.CloseSend(); err != nil {
		return nil, err
	}

	return stream, nil
}

// Invoke performs a unary call
func Invoke(ctx context.Context,
	conn grpc.ClientConnInterface,
	method string,
	request analysis.WireMessage,
	response analysis.WireMessage,
	options ...grpc.CallOption) error {
	return conn.Invoke(ctx, method, request, response, CallOptions(options...)...)
}

// IssueSender streams issues back to the caller of an analysis
type IssueSender interface {
	Send(issue *analysis.Issue) error
	Context() context.Context
}

// LogSender streams daemon log events
type LogSender interface {
	Send(logEvent *analysis.LogEvent) error
	Context() context.Context
}

// StandaloneServer is the daemon side of the protocol
type StandaloneServer interface {
	Analyze(request *analysis.FileAnalysisRequest, sender IssueSender) error
	AnalyzeContent(request *analysis.ContentAnalysisRequest, sender IssueSender) error
	GetRuleDetails(ctx context.Context, ruleKey *analysis.RuleKey) (*analysis.RuleDetails, error)
	StreamLogs(request *Void, sender LogSender) error
}

// RegisterStandaloneServer registers a daemon implementation. the server must be created with
// grpc.ForceServerCodec(Codec{})
func RegisterStandaloneServer(registrar grpc.ServiceRegistrar, server StandaloneServer) {
	registrar.RegisterService(&StandaloneServiceDesc, server)
}

var StandaloneServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*StandaloneServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetRuleDetails",
			Handler:    getRuleDetailsHandler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Analyze",
			Handler:       analyzeHandler,
			ServerStreams: true,
		},
		{
			StreamName:    "AnalyzeContent",
			Handler:       analyzeContentHandler,
			ServerStreams: true,
		},
		{
			StreamName:    "StreamLogs",
			Handler:       streamLogsHandler,
			ServerStreams: true,
		},
	},
	Metadata: "sonarlint-daemon.proto",
}

type issueSender struct {
	grpc.ServerStream
}

func (s *issueSender) Send(issue *analysis.Issue) error {
	return s.ServerStream.SendMsg(issue)
}

type logSender struct {
	grpc.ServerStream
}

func (s *logSender) Send(logEvent *analysis.LogEvent) error {
	return s.ServerStream.SendMsg(logEvent)
}

func analyzeHandler(server interface{}, stream grpc.ServerStream) error {
	request := &analysis.FileAnalysisRequest{}
	if err := stream.RecvMsg(request); err != nil {
		return err
	}

	return server.(StandaloneServer).Analyze(request, &issueSender{stream})
}

func analyzeContentHandler(server interface{}, stream grpc.ServerStream) error {
	request := &analysis.ContentAnalysisRequest{}
	if err := stream.RecvMsg(request); err != nil {
		return err
	}

	return server.(StandaloneServer).AnalyzeContent(request, &issueSender{stream})
}

func streamLogsHandler(server interface{}, stream grpc.ServerStream) error {
	request := &Void{}
	if err := stream.RecvMsg(request); err != nil {
		return err
	}

	return server.(StandaloneServer).StreamLogs(request, &logSender{stream})
}

func getRuleDetailsHandler(server interface{},
	ctx context.Context,
	decode func(interface{}) error,
	interceptor grpc.UnaryServerInterceptor) (interface{}, error) {

	request := &analysis.RuleKey{}
	if err := decode(request); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return server.(StandaloneServer).GetRuleDetails(ctx, request)
	}

	info := &grpc.UnaryServerInfo{
		Server:     server,
		FullMethod: GetRuleDetailsMethod,
	}

	handler := func(ctx context.Context, request interface{}) (interface{}, error) {
		return server.(StandaloneServer).GetRuleDetails(ctx, request.(*analysis.RuleKey))
	}

	return interceptor(ctx, request, info, handler)
}
