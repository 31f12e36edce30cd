package collateral

import "context"

// Custody is the ownership registry for collateral bundles.
type Custody interface {
	OwnerOf(ctx context.Context, bundleID string) (string, error)
	Transfer(ctx context.Context, bundleID, to string) error
	Register(ctx context.Context, b *Bundle) error
}
