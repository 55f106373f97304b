package runner

import (
	"context"

	"github.com/desktopdye/desktopdye/internal/homeassistant"
	"github.com/desktopdye/desktopdye/internal/pipeline"
)

// Submitter delivers a pipeline result somewhere.
type Submitter interface {
	Submit(ctx context.Context, result *pipeline.Result) error
}

// SubmitterFunc adapts a function to the Submitter interface.
type SubmitterFunc func(ctx context.Context, result *pipeline.Result) error

// Submit calls f.
func (f SubmitterFunc) Submit(ctx context.Context, result *pipeline.Result) error {
	return f(ctx, result)
}

// StateSetter is the part of the Home Assistant client used for submission.
type StateSetter interface {
	SetState(ctx context.Context, entityID, state string, attributes map[string]any, forceUpdate bool) error
}

var _ StateSetter = (*homeassistant.Client)(nil)

// HomeAssistantSubmitter writes the payload as the state of an entity.
type HomeAssistantSubmitter struct {
	client   StateSetter
	entityID string
}

// NewHomeAssistantSubmitter creates a submitter for entityID.
func NewHomeAssistantSubmitter(client StateSetter, entityID string) *HomeAssistantSubmitter {
	return &HomeAssistantSubmitter{client: client, entityID: entityID}
}

// Submit implements Submitter. Updates are always forced so automations
// fire even when the payload repeats.
func (s *HomeAssistantSubmitter) Submit(ctx context.Context, result *pipeline.Result) error {
	return s.client.SetState(ctx, s.entityID, result.Payload, nil, true)
}
