package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context bundles a request context with an optional GORM transaction.
// Services that accept one run inside Tx when it is set and fall back to
// their own *gorm.DB otherwise.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}
