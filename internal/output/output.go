package output

import (
	"context"

	"github.com/hejijunhao/calltrace/internal/model"
)

// Output defines the interface for call line destinations.
type Output interface {
	Write(ctx context.Context, event model.Event) error
	Close() error
}
