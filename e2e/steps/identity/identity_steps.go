package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext is the part of the scenario context identity steps need.
type TestContext interface {
	POST(path string, body any) error
	GET(path string) error
	Field(path string) (any, error)
}

// RegisterSteps registers identity validation step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &identitySteps{tc: tc}

	ctx.Step(`^I validate the identity number "([^"]*)"$`, steps.validate)
	ctx.Step(`^I validate the batch "([^"]*)"$`, steps.validateBatch)
	ctx.Step(`^I submit (\d+) batches of "([^"]*)"$`, steps.submitBatches)
	ctx.Step(`^I fetch the last verification$`, steps.fetchLast)
	ctx.Step(`^I fetch the verification "([^"]*)"$`, steps.fetch)
	ctx.Step(`^I request the verification stats$`, steps.stats)
}

type identitySteps struct {
	tc     TestContext
	lastID string
}

func (s *identitySteps) validate(_ context.Context, number string) error {
	if err := s.tc.POST("/v1/identity/validate", map[string]string{"id_number": number}); err != nil {
		return err
	}
	if id, err := s.tc.Field("id"); err == nil {
		s.lastID, _ = id.(string)
	}
	return nil
}

func (s *identitySteps) validateBatch(_ context.Context, list string) error {
	return s.tc.POST("/v1/identity/validate/batch", map[string][]string{"id_numbers": strings.Split(list, ",")})
}

func (s *identitySteps) submitBatches(_ context.Context, n int, number string) error {
	for i := 0; i < n; i++ {
		if err := s.validateBatch(context.Background(), number); err != nil {
			return err
		}
	}
	return nil
}

func (s *identitySteps) fetchLast(ctx context.Context) error {
	if s.lastID == "" {
		return fmt.Errorf("no verification recorded in this scenario")
	}
	return s.fetch(ctx, s.lastID)
}

func (s *identitySteps) fetch(_ context.Context, id string) error {
	return s.tc.GET("/v1/identity/verifications/" + id)
}

func (s *identitySteps) stats(context.Context) error {
	return s.tc.GET("/v1/identity/stats")
}
