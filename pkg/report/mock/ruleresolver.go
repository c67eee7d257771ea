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

package mock

import (
	"context"

	"github.com/nuclio/sonarlint-client/pkg/analysis"

	"github.com/stretchr/testify/mock"
)

type RuleResolver struct {
	mock.Mock
}

func (r *RuleResolver) GetRuleDetails(ctx context.Context, ruleKey analysis.RuleKey) (*analysis.RuleDetails, error) {
	args := r.Called(ctx, ruleKey)

	ruleDetails, _ := args.Get(0).(*analysis.RuleDetails)
	return ruleDetails, args.Error(1)
}
