package scripting

import (
	"context"

	"github.com/dop251/goja"
)

type GojaEngine struct {
	vm *goja.Runtime
}

func NewEngine() *GojaEngine {
	vm := goja.New()
	return &GojaEngine{vm: vm}
}

func (e *GojaEngine) Execute(ctx context.Context, script string) (interface{}, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done := make(chan struct{})
	defer close(done)
	defer e.vm.ClearInterrupt()

	go func() {
		select {
		case <-ctx.Done():
			e.vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	val, err := e.vm.RunString(script)
	if err != nil {
		if interruptedErr, ok := err.(*goja.InterruptedError); ok {
			if cause := interruptedErr.Unwrap(); cause != nil {
				return nil, cause
			}
			return nil, context.Canceled
		}
		return nil, err
	}
	return val.Export(), nil
}

// RegisterDOM installs the `doc` and `app` globals. Annotation entries are
// plain objects; mutation goes through doc methods only.
func (e *GojaEngine) RegisterDOM(dom DocumentDOM) error {
	appObj := e.vm.NewObject()
	if err := appObj.Set("log", func(call goja.FunctionCall) goja.Value {
		msg := ""
		if len(call.Arguments) > 0 {
			msg = call.Arguments[0].String()
		}
		dom.Log(msg)
		return goja.Undefined()
	}); err != nil {
		return err
	}
	if err := e.vm.Set("app", appObj); err != nil {
		return err
	}

	docObj := e.vm.NewObject()

	if err := docObj.Set("annotations", func(call goja.FunctionCall) goja.Value {
		anns := dom.Annotations()
		out := make([]interface{}, 0, len(anns))
		for _, a := range anns {
			entry := map[string]interface{}{
				"id":    a.ID,
				"kind":  a.Kind,
				"page":  a.PageNumber,
				"color": a.Color,
				"text":  a.Text,
			}
			out = append(out, entry)
		}
		return e.vm.ToValue(out)
	}); err != nil {
		return err
	}

	if err := docObj.Set("addHighlight", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 5 {
			return goja.Undefined()
		}
		page := int(call.Arguments[0].ToInteger())
		x := call.Arguments[1].ToFloat()
		y := call.Arguments[2].ToFloat()
		w := call.Arguments[3].ToFloat()
		h := call.Arguments[4].ToFloat()
		color := ""
		if len(call.Arguments) > 5 {
			color = call.Arguments[5].String()
		}
		id := dom.AddHighlight(page, x, y, w, h, color)
		return e.vm.ToValue(id)
	}); err != nil {
		return err
	}

	if err := docObj.Set("removeAnnotation", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) > 0 {
			dom.RemoveAnnotation(call.Arguments[0].String())
		}
		return goja.Undefined()
	}); err != nil {
		return err
	}

	if err := docObj.Set("pulse", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 5 {
			return goja.Undefined()
		}
		dom.Pulse(
			int(call.Arguments[0].ToInteger()),
			call.Arguments[1].ToFloat(),
			call.Arguments[2].ToFloat(),
			call.Arguments[3].ToFloat(),
			call.Arguments[4].ToFloat(),
		)
		return goja.Undefined()
	}); err != nil {
		return err
	}

	if err := docObj.Set("search", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			return e.vm.ToValue([]interface{}{})
		}
		hits, err := dom.Search(call.Arguments[0].String())
		if err != nil {
			panic(e.vm.NewGoError(err))
		}
		out := make([]interface{}, 0, len(hits))
		for _, h := range hits {
			out = append(out, map[string]interface{}{
				"page":  h.PageNumber,
				"start": h.Start,
			})
		}
		return e.vm.ToValue(out)
	}); err != nil {
		return err
	}

	return e.vm.Set("doc", docObj)
}
