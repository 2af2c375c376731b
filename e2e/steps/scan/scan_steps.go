package scan

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	GET(path string) error
	DELETE(path string) error
	GetResponseField(field string) (any, error)
	ResponseFieldShouldBe(field, want string) error
}

// RegisterSteps registers scan-related step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &scanSteps{tc: tc}

	ctx.Step(`^I start a scan$`, steps.startScan)
	ctx.Step(`^I submit the recognized text:$`, steps.submitText)
	ctx.Step(`^I submit blank text$`, steps.submitBlank)
	ctx.Step(`^I fetch the scan$`, steps.fetchScan)
	ctx.Step(`^I finalize the scan$`, steps.finalizeScan)
	ctx.Step(`^I cancel the scan$`, steps.cancelScan)

	ctx.Step(`^the side should be accepted$`, steps.sideAccepted)
	ctx.Step(`^the side should be rejected as "([^"]*)"$`, steps.sideRejected)
	ctx.Step(`^the scan state should be "([^"]*)"$`, steps.stateShouldBe)
	ctx.Step(`^the extracted field "([^"]*)" should be "([^"]*)"$`, steps.fieldShouldBe)
	ctx.Step(`^the extracted field "([^"]*)" should be present$`, steps.fieldPresent)
}

type scanSteps struct {
	tc        TestContext
	sessionID string
}

func (s *scanSteps) path(suffix string) string {
	return "/scans/" + s.sessionID + suffix
}

func (s *scanSteps) startScan(ctx context.Context) error {
	if err := s.tc.POST("/scans", nil); err != nil {
		return err
	}
	v, err := s.tc.GetResponseField("session_id")
	if err != nil {
		return err
	}
	id, ok := v.(string)
	if !ok || id == "" {
		return fmt.Errorf("start returned no session_id")
	}
	s.sessionID = id
	return nil
}

func (s *scanSteps) submitText(ctx context.Context, text *godog.DocString) error {
	return s.tc.POST(s.path("/text"), map[string]string{"text": text.Content})
}

func (s *scanSteps) submitBlank(ctx context.Context) error {
	return s.tc.POST(s.path("/text"), map[string]string{"text": "   "})
}

func (s *scanSteps) fetchScan(ctx context.Context) error {
	return s.tc.GET(s.path(""))
}

func (s *scanSteps) finalizeScan(ctx context.Context) error {
	return s.tc.POST(s.path("/finalize"), nil)
}

func (s *scanSteps) cancelScan(ctx context.Context) error {
	return s.tc.DELETE(s.path(""))
}

func (s *scanSteps) sideAccepted(ctx context.Context) error {
	return s.tc.ResponseFieldShouldBe("accepted", "true")
}

func (s *scanSteps) sideRejected(ctx context.Context, reason string) error {
	if err := s.tc.ResponseFieldShouldBe("accepted", "false"); err != nil {
		return err
	}
	return s.tc.ResponseFieldShouldBe("reason", reason)
}

func (s *scanSteps) stateShouldBe(ctx context.Context, state string) error {
	return s.tc.ResponseFieldShouldBe("state", state)
}

func (s *scanSteps) fieldShouldBe(ctx context.Context, field, want string) error {
	return s.tc.ResponseFieldShouldBe("fields."+field, want)
}

func (s *scanSteps) fieldPresent(ctx context.Context, field string) error {
	_, err := s.tc.GetResponseField("fields." + field)
	return err
}
