// Package demo holds small method tables used by the calltrace CLI to show
// instrumented calls.
package demo

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/hejijunhao/calltrace/pkg/calltrace"
)

// ErrDivByZero is returned by Calculator.Div for a zero divisor.
var ErrDivByZero = errors.New("division by zero")

// ErrUnknownOrder is returned when cancelling an order that was never placed.
var ErrUnknownOrder = errors.New("unknown order")

// Calculator is a method table of integer operations.
type Calculator struct {
	Add func(a, b int) int          `calltrace:"a,b"`
	Div func(a, b int) (int, error) `calltrace:"a,b"`
}

// NewCalculator returns a Calculator with its default implementation.
func NewCalculator() *Calculator {
	return &Calculator{
		Add: func(a, b int) int { return a + b },
		Div: func(a, b int) (int, error) {
			if b == 0 {
				return 0, errors.WithStack(ErrDivByZero)
			}
			return a / b, nil
		},
	}
}

// Order is a placed order.
type Order struct {
	ID       string
	Customer string
	Items    []string
}

// Summary is used by templates through {return#Summary}.
func (o Order) Summary() string {
	return fmt.Sprintf("%s (%d items)", o.ID, len(o.Items))
}

// OrderService is a method table over an in-memory order book.
type OrderService struct {
	Place  func(ctx context.Context, customer string, items ...string) (Order, error) `calltrace:"_,customer,items"`
	Cancel func(ctx context.Context, id string) error                                `calltrace:"_,id"`
	Audit  func(id string)                                                            `calltrace:"id"`
}

// NewOrderService returns an OrderService backed by a map. Audit panics
// for unknown ids.
func NewOrderService() *OrderService {
	var mu sync.Mutex
	orders := map[string]Order{}

	lookup := func(id string) (Order, bool) {
		mu.Lock()
		defer mu.Unlock()
		o, ok := orders[id]
		return o, ok
	}

	return &OrderService{
		Place: func(ctx context.Context, customer string, items ...string) (Order, error) {
			if err := ctx.Err(); err != nil {
				return Order{}, errors.Wrap(err, "place order")
			}
			if strings.TrimSpace(customer) == "" {
				return Order{}, errors.New("customer is required")
			}
			o := Order{ID: uuid.NewString(), Customer: customer, Items: items}
			mu.Lock()
			orders[o.ID] = o
			mu.Unlock()
			return o, nil
		},
		Cancel: func(ctx context.Context, id string) error {
			mu.Lock()
			defer mu.Unlock()
			if _, ok := orders[id]; !ok {
				return errors.Wrapf(ErrUnknownOrder, "cancel %s", id)
			}
			delete(orders, id)
			return nil
		},
		Audit: func(id string) {
			if _, ok := lookup(id); !ok {
				panic(fmt.Sprintf("audit: order %s not found", id))
			}
		},
	}
}

// Register instruments calc and svc with their demo templates.
func Register(t *calltrace.Tracer, calc *Calculator, svc *OrderService) error {
	if err := t.Register(calc,
		calltrace.Method("Add"), "sum of {a} and {b} is {return}",
		calltrace.Method("Div"), calltrace.Config{Template: "{a} / {b} = {return}"},
	); err != nil {
		return errors.Wrap(err, "register calculator")
	}
	if err := t.Register(svc,
		calltrace.Method("Place"), "order for {customer}: {return#Summary}",
		calltrace.Method("Cancel"), "cancel {id}",
		calltrace.Method("Audit"),
	); err != nil {
		return errors.Wrap(err, "register order service")
	}
	return nil
}

var catalog = []string{"apple", "bread", "cheese", "dates", "eggs"}

// Run performs calls across workers goroutines, mixing successful calls,
// returned errors and recovered panics. It returns the number of calls made.
func Run(ctx context.Context, calc *Calculator, svc *OrderService, calls, workers int) int {
	if workers < 1 {
		workers = 1
	}
	jobs := make(chan int)
	var wg sync.WaitGroup
	var mu sync.Mutex
	done := 0

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for i := range jobs {
				step(ctx, rng, calc, svc, i)
				mu.Lock()
				done++
				mu.Unlock()
			}
		}(int64(w) + 1)
	}

feed:
	for i := 0; i < calls; i++ {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	return done
}

func step(ctx context.Context, rng *rand.Rand, calc *Calculator, svc *OrderService, i int) {
	switch i % 4 {
	case 0:
		calc.Add(rng.Intn(100), rng.Intn(100))
	case 1:
		if _, err := calc.Div(rng.Intn(100), rng.Intn(3)); err != nil {
			logrus.WithError(err).Debug("div failed")
		}
	case 2:
		o, err := svc.Place(ctx, fmt.Sprintf("customer-%d", i), catalog[:1+rng.Intn(len(catalog))]...)
		if err != nil {
			logrus.WithError(err).Debug("place failed")
			return
		}
		if rng.Intn(2) == 0 {
			if err := svc.Cancel(ctx, o.ID); err != nil {
				logrus.WithError(err).Debug("cancel failed")
			}
		}
	default:
		audit(svc, uuid.NewString())
	}
}

func audit(svc *OrderService, id string) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithField("panic", r).Debug("audit recovered")
		}
	}()
	svc.Audit(id)
}
