// Package mocks provides testify mocks for the domain package.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"stapper.dev/pkg/stapper/internal/domain"
	m "stapper.dev/pkg/stapper/internal/model"
)

// MockOrchestrator is a mock implementation of domain.Orchestrator.
type MockOrchestrator struct {
	mock.Mock
}

var _ domain.Orchestrator = (*MockOrchestrator)(nil)

// NewMockOrchestrator creates a MockOrchestrator whose expectations are
// asserted on cleanup.
func NewMockOrchestrator(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockOrchestrator {
	o := &MockOrchestrator{}
	o.Mock.Test(t)

	t.Cleanup(func() { o.AssertExpectations(t) })

	return o
}

// Run provides a mock function.
func (_m *MockOrchestrator) Run(ctx context.Context, args domain.RunArgs) (m.RunReport, error) {
	ret := _m.Called(ctx, args)

	var report m.RunReport
	if fn, ok := ret.Get(0).(func(context.Context, domain.RunArgs) m.RunReport); ok {
		report = fn(ctx, args)
	} else if ret.Get(0) != nil {
		report = ret.Get(0).(m.RunReport)
	}

	return report, ret.Error(1)
}

// RunTargets provides a mock function.
func (_m *MockOrchestrator) RunTargets(ctx context.Context, rc *domain.RunContext, root m.Path, targets []m.TargetSpec, mode m.Mode) []m.Outcome {
	ret := _m.Called(ctx, rc, root, targets, mode)

	if ret.Get(0) == nil {
		return nil
	}

	return ret.Get(0).([]m.Outcome)
}

// Inspect provides a mock function.
func (_m *MockOrchestrator) Inspect(ctx context.Context, root m.Path, targets []m.TargetSpec) ([]m.TargetState, error) {
	ret := _m.Called(ctx, root, targets)

	var states []m.TargetState
	if ret.Get(0) != nil {
		states = ret.Get(0).([]m.TargetState)
	}

	return states, ret.Error(1)
}
