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

/*
Package rpc holds the gRPC plumbing of the analysis daemon protocol

The daemon exposes the "sonarlint.StandaloneSonarLint" service. Messages travel protobuf encoded
(content subtype "proto"), marshalled by the analysis types themselves through Codec, so no
generated stubs are required.

# Calls
- AnalyzeContent and Analyze: one request, a stream of issues, then the call status
- GetRuleDetails: unary
- StreamLogs: a stream of daemon log events until the call is cancelled
*/
package rpc
