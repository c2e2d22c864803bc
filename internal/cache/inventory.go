package cache

import (
	"context"
	"time"
)

// Only the category list is cached. Post and user rows carry ledger-derived
// values (engagement score, comment count, rating) that must be observable on
// the read immediately following a recompute, so they are always read from
// the database.
const CategoriesListKey = "categories:list"

const CategoryTTL = 30 * time.Minute

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateCategories(ctx context.Context) {
	Invalidate(ctx, CategoriesListKey)
}
