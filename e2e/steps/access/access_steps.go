package access

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext is the part of the scenario context shared steps need.
type TestContext interface {
	Authenticate() error
	SetToken(token string)
	GET(path string) error
	Field(path string) (any, error)
	LastStatus() int
	LastStatuses() []int
	LastHeader(name string) string
}

// RegisterSteps registers authentication and response assertion steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &accessSteps{tc: tc}

	ctx.Step(`^I am an authenticated operator$`, steps.authenticated)
	ctx.Step(`^I am not authenticated$`, steps.anonymous)
	ctx.Step(`^I present the token "([^"]*)"$`, steps.presentToken)
	ctx.Step(`^I GET "([^"]*)"$`, steps.get)

	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the field "([^"]*)" should be "([^"]*)"$`, steps.fieldShouldBe)
	ctx.Step(`^the field "([^"]*)" should be at least (\d+)$`, steps.fieldAtLeast)
	ctx.Step(`^at least one response should have status (\d+)$`, steps.anyStatus)
	ctx.Step(`^the last response should carry a "([^"]*)" header$`, steps.hasHeader)
}

type accessSteps struct {
	tc TestContext
}

func (s *accessSteps) authenticated(context.Context) error {
	return s.tc.Authenticate()
}

func (s *accessSteps) anonymous(context.Context) error {
	s.tc.SetToken("")
	return nil
}

func (s *accessSteps) presentToken(_ context.Context, token string) error {
	s.tc.SetToken(token)
	return nil
}

func (s *accessSteps) get(_ context.Context, path string) error {
	return s.tc.GET(path)
}

func (s *accessSteps) statusShouldBe(_ context.Context, want int) error {
	if got := s.tc.LastStatus(); got != want {
		return fmt.Errorf("expected status %d, got %d", want, got)
	}
	return nil
}

func (s *accessSteps) fieldShouldBe(_ context.Context, path, want string) error {
	val, err := s.tc.Field(path)
	if err != nil {
		return err
	}
	if got := fmt.Sprint(val); got != want {
		return fmt.Errorf("field %q: expected %q, got %q", path, want, got)
	}
	return nil
}

func (s *accessSteps) fieldAtLeast(_ context.Context, path string, floor int) error {
	val, err := s.tc.Field(path)
	if err != nil {
		return err
	}
	n, ok := val.(float64)
	if !ok {
		return fmt.Errorf("field %q is not a number: %v", path, val)
	}
	if int(n) < floor {
		return fmt.Errorf("field %q: expected at least %d, got %v", path, floor, n)
	}
	return nil
}

func (s *accessSteps) anyStatus(_ context.Context, want int) error {
	for _, got := range s.tc.LastStatuses() {
		if got == want {
			return nil
		}
	}
	return fmt.Errorf("no response had status %d: %v", want, s.tc.LastStatuses())
}

func (s *accessSteps) hasHeader(_ context.Context, name string) error {
	if s.tc.LastHeader(name) == "" {
		return fmt.Errorf("last response has no %s header", name)
	}
	return nil
}
