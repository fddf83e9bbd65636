package mediator

import (
	"reflect"

	"github.com/glimte/mediate-go/contracts"
	"github.com/glimte/mediate-go/pipeline"
)

// MiddlewareInfo describes one middleware's effective position in a
// pipeline, for diagnostics tooling. Read-only: producing it never touches
// dispatch state.
type MiddlewareInfo struct {
	Name        string
	Order       int
	Constraints []string
	Conditional bool
}

// PublishPreview describes what publishing a notification would do, without
// executing anything. Conditional middleware is listed as applicable with
// its Conditional flag set; predicates are runtime conditions and are not
// evaluated by a preview.
type PublishPreview struct {
	Middleware []MiddlewareInfo
	Skipped    []MiddlewareInfo
	Consumers  []string
}

// PipelineFor returns the ordered middleware that applies to the given
// message in a pipeline category.
func (m *Mediator) PipelineFor(category pipeline.Category, msg contracts.Message) ([]MiddlewareInfo, error) {
	middleware, err := m.middlewareFor(category, msg)
	if err != nil {
		return nil, err
	}

	infos := make([]MiddlewareInfo, 0, len(middleware))
	for _, mw := range middleware {
		infos = append(infos, infoFor(mw))
	}
	return infos, nil
}

// PreviewPublish reports which middleware and consumers a Publish of this
// notification would involve, and which constrained middleware would be
// skipped.
func (m *Mediator) PreviewPublish(n contracts.Notification) (*PublishPreview, error) {
	key, err := MessageKey(n)
	if err != nil {
		return nil, err
	}

	sorted := pipeline.Sort(m.registry.ResolveMiddleware(pipeline.CategoryNotification))
	msgType := reflect.TypeOf(n)

	preview := &PublishPreview{}
	for _, mw := range sorted {
		applies, err := m.matcher.Applies(msgType, mw)
		if err != nil {
			return nil, err
		}
		if applies {
			preview.Middleware = append(preview.Middleware, infoFor(mw))
		} else {
			preview.Skipped = append(preview.Skipped, infoFor(mw))
		}
	}

	for _, c := range m.resolveConsumers(n, key) {
		preview.Consumers = append(preview.Consumers, c.name)
	}
	return preview, nil
}

func infoFor(mw pipeline.Middleware) MiddlewareInfo {
	info := MiddlewareInfo{
		Name:        mw.Name(),
		Order:       pipeline.OrderOf(mw),
		Conditional: pipeline.IsConditional(mw),
	}
	for _, constraint := range pipeline.ConstraintsOf(mw) {
		info.Constraints = append(info.Constraints, constraint.String())
	}
	return info
}
