//go:build e2e

package e2e

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/cucumber/godog"

	"compliance/e2e/steps/access"
	"compliance/e2e/steps/identity"
)

func TestFeatures(t *testing.T) {
	tc := &TestContext{Client: &http.Client{Timeout: 10 * time.Second}}

	if base := os.Getenv("COMPLIANCE_E2E_BASE_URL"); base != "" {
		tc.BaseURL = base
		token := os.Getenv("COMPLIANCE_E2E_TOKEN")
		tc.IssueToken = func() (string, error) {
			if token == "" {
				return "", errors.New("COMPLIANCE_E2E_TOKEN is required with COMPLIANCE_E2E_BASE_URL")
			}
			return token, nil
		}
	} else {
		stack, err := NewStack()
		if err != nil {
			t.Fatalf("build stack: %v", err)
		}
		t.Cleanup(stack.Close)
		srv := httptest.NewServer(stack.Handler)
		t.Cleanup(srv.Close)
		tc.BaseURL = srv.URL
		tc.IssueToken = stack.IssueToken
	}

	suite := godog.TestSuite{
		Name: "compliance",
		ScenarioInitializer: func(ctx *godog.ScenarioContext) {
			ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
				tc.Reset()
				return ctx, nil
			})
			access.RegisterSteps(ctx, tc)
			identity.RegisterSteps(ctx, tc)
		},
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			Strict:   true,
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("feature scenarios failed")
	}
}
