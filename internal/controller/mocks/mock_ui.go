// Package mocks provides testify mocks for the controller package.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"stapper.dev/pkg/stapper/internal/controller"
	m "stapper.dev/pkg/stapper/internal/model"
)

// MockUI is a mock implementation of controller.UI.
type MockUI struct {
	mock.Mock
}

var _ controller.UI = (*MockUI)(nil)

// NewMockUI creates a MockUI whose expectations are asserted on cleanup.
func NewMockUI(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockUI {
	ui := &MockUI{}
	ui.Mock.Test(t)

	t.Cleanup(func() { ui.AssertExpectations(t) })

	return ui
}

// Start provides a mock function.
func (_m *MockUI) Start(ctx context.Context, options ...controller.StartOption) error {
	ret := _m.Called(ctx, options)
	return ret.Error(0)
}

// Close provides a mock function.
func (_m *MockUI) Close(ctx context.Context) {
	_m.Called(ctx)
}

// DisplayRunInfo provides a mock function.
func (_m *MockUI) DisplayRunInfo(ctx context.Context, runID string, mode m.Mode, root m.Path, targets int) {
	_m.Called(ctx, runID, mode, root, targets)
}

// DisplayOutcome provides a mock function.
func (_m *MockUI) DisplayOutcome(ctx context.Context, outcome m.Outcome) {
	_m.Called(ctx, outcome)
}

// DisplayPatch provides a mock function.
func (_m *MockUI) DisplayPatch(ctx context.Context, path m.Path, diff string) {
	_m.Called(ctx, path, diff)
}

// DisplaySummary provides a mock function.
func (_m *MockUI) DisplaySummary(ctx context.Context, report m.RunReport) {
	_m.Called(ctx, report)
}

// DisplayTargetStates provides a mock function.
func (_m *MockUI) DisplayTargetStates(ctx context.Context, states []m.TargetState) {
	_m.Called(ctx, states)
}
