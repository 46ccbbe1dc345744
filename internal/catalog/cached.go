package catalog

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// CachedRepository collapses concurrent identical reads with singleflight.
// Product pages fan out many lookups for the same slug when a campaign
// lands; only one of them should hit the database at a time.
type CachedRepository struct {
	repo RepoInterface
	sfg  singleflight.Group
}

func NewCachedRepository(repo RepoInterface) *CachedRepository {
	return &CachedRepository{repo: repo}
}

func (c *CachedRepository) ListProducts(ctx context.Context) ([]*Product, error) {
	v, err, _ := c.sfg.Do("list", func() (interface{}, error) {
		return c.repo.ListProducts(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]*Product), nil
}

func (c *CachedRepository) GetProduct(ctx context.Context, id string) (*Product, error) {
	v, err, _ := c.sfg.Do("id:"+id, func() (interface{}, error) {
		return c.repo.GetProduct(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Product), nil
}

func (c *CachedRepository) GetProductBySlug(ctx context.Context, slug string) (*Product, error) {
	v, err, _ := c.sfg.Do("slug:"+slug, func() (interface{}, error) {
		return c.repo.GetProductBySlug(ctx, slug)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Product), nil
}

func (c *CachedRepository) RunMigrations(migrationsPath string) error {
	return c.repo.RunMigrations(migrationsPath)
}

func (c *CachedRepository) Close() error {
	return c.repo.Close()
}
