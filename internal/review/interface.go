package review

import "context"

// Oracle produces a review for a piece of source code. It is a black box:
// it may be slow or fail, and callers get no retry from this layer.
type Oracle interface {
	Review(ctx context.Context, code string) (string, error)
}
