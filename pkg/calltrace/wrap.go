package calltrace

import (
	"reflect"

	"github.com/pkg/errors"

	"github.com/hejijunhao/calltrace/internal/engine"
)

// Wrap instruments a single function value and returns a function of the
// same type. owner and name form the "Owner#Method" column. extra takes the
// same forms as in Register: a template string, a Config, a *Config, or nil
// for no message. params names fn's parameters for the template; without
// them parameters are arg0, arg1, ...
//
//	add, err := calltrace.Wrap(t, "Calculator", "Add",
//	    func(a, b int) int { return a + b },
//	    "sum of {a} and {b} is {return}", "a", "b")
func Wrap[F any](t *Tracer, owner, name string, fn F, extra any, params ...string) (F, error) {
	var zero F
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func || rv.IsNil() {
		return zero, errors.Wrapf(ErrNotFunc, "%s#%s", owner, name)
	}
	m, err := engine.NewMethodConfig(owner, name, rv, configFrom(extra), params)
	if err != nil {
		return zero, err
	}
	return t.engine.Wrap(m).Interface().(F), nil
}
