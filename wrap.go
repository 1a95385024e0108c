package replies

import (
	"fmt"
	"reflect"
	"testing"
)

var (
	errorType = reflect.TypeFor[error]()
	tbType    = reflect.TypeFor[testing.TB]()
)

// Wrap returns a function of the same type as fn that runs fn with m active.
//
// The mock is started before fn and stopped and reset afterwards. If fn
// returns a non-nil trailing error, panics, or fails the testing.TB it was
// given, unused rules are not reported. Otherwise a coverage failure is
// returned through a trailing error result, reported on the testing.TB
// argument, or raised as a panic, in that order of preference.
func Wrap[F any](m *Mock, fn F) F {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		panic(fmt.Sprintf("replies: Wrap requires a non-nil function, got %T", fn))
	}
	typ := v.Type()
	returnsError := typ.NumOut() > 0 && typ.Out(typ.NumOut()-1) == errorType

	wrapped := reflect.MakeFunc(typ, func(args []reflect.Value) []reflect.Value {
		tb := findTB(args)

		if err := m.Start(); err != nil {
			if tb != nil {
				tb.Fatalf("replies: %v", err)
			}
			panic(err)
		}

		done := false
		defer func() {
			if !done {
				_ = m.Stop(false)
				m.Reset()
			}
		}()

		var results []reflect.Value
		if typ.IsVariadic() {
			results = v.CallSlice(args)
		} else {
			results = v.Call(args)
		}

		failed := tb != nil && tb.Failed()
		if returnsError && !results[len(results)-1].IsNil() {
			failed = true
		}

		done = true
		err := m.Stop(!failed)
		m.Reset()
		if err == nil {
			return results
		}

		switch {
		case returnsError:
			results[len(results)-1] = reflect.ValueOf(&err).Elem()
		case tb != nil:
			tb.Error(err)
		default:
			panic(err)
		}
		return results
	})

	return wrapped.Interface().(F)
}

func findTB(args []reflect.Value) testing.TB {
	for _, a := range args {
		if !a.Type().Implements(tbType) {
			continue
		}
		if a.Kind() == reflect.Interface || a.Kind() == reflect.Pointer {
			if a.IsNil() {
				continue
			}
		}
		if tb, ok := a.Interface().(testing.TB); ok {
			return tb
		}
	}
	return nil
}
