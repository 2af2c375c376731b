package e2e

import (
	"github.com/cucumber/godog"

	"cardscan/e2e/steps/scan"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	ctx.Step(`^the response status should be (\d+)$`, tc.ResponseStatusShouldBe)
	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, tc.ResponseFieldShouldBe)

	scan.RegisterSteps(ctx, tc)
}
