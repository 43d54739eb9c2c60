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

func (e *GojaEngine) RegisterDOM(dom DocumentDOM) error {
	// Expose 'doc' object
	docObj := e.vm.NewObject()
	if err := docObj.Set("pageCount", func(call goja.FunctionCall) goja.Value {
		return e.vm.ToValue(dom.PageCount())
	}); err != nil {
		return err
	}
	if err := docObj.Set("log", func(call goja.FunctionCall) goja.Value {
		msg := ""
		if len(call.Arguments) > 0 {
			msg = call.Arguments[0].String()
		}
		dom.Log(msg)
		return goja.Undefined()
	}); err != nil {
		return err
	}
	if err := docObj.Set("getPage", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			return goja.Undefined()
		}
		idx := int(call.Arguments[0].ToInteger())
		page, err := dom.Page(idx)
		if err != nil || page == nil {
			return goja.Null()
		}
		return e.pageObject(page)
	}); err != nil {
		return err
	}
	e.vm.Set("doc", docObj)
	return nil
}

func (e *GojaEngine) pageObject(page PageProxy) goja.Value {
	obj := e.vm.NewObject()
	obj.Set("index", page.Index())
	obj.Set("words", func(call goja.FunctionCall) goja.Value {
		words := page.Words()
		out := make([]goja.Value, len(words))
		for i, w := range words {
			out[i] = e.wordObject(w)
		}
		return e.vm.ToValue(out)
	})
	return obj
}

func (e *GojaEngine) wordObject(word WordProxy) goja.Value {
	obj := e.vm.NewObject()
	obj.DefineAccessorProperty("value",
		e.vm.ToValue(func(call goja.FunctionCall) goja.Value {
			return e.vm.ToValue(word.Value())
		}),
		e.vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) > 0 {
				word.SetValue(call.Arguments[0].String())
			}
			return goja.Undefined()
		}),
		goja.FLAG_TRUE, // Configurable
		goja.FLAG_TRUE, // Enumerable
	)
	obj.Set("confidence", word.Confidence())
	obj.Set("drop", func(call goja.FunctionCall) goja.Value {
		word.Drop()
		return goja.Undefined()
	})
	return obj
}
