package main

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/keneanapp/kenean/core/catalog"
)

// seed loads the initial categories; existing slugs are left untouched.
func (cli *commandLine) seed() error {
	categories := []catalog.Category{
		{Name: "Videos", Slug: "videos", Description: "Video lessons and lectures", Order: 1},
		{Name: "Books", Slug: "books", Description: "Orthodox Christian books and literature", Order: 2},
	}

	ctx := context.Background()
	now := time.Now().UTC()

	for _, cat := range categories {
		if _, err := cli.catalogRepo.GetCategory(ctx, cat.Slug); err == nil {
			logger.Printf("Exists: %s", cat.Name)
			continue
		} else if errors.Cause(err) != catalog.ErrCategoryNotFound {
			return err
		}

		cat.CreatedAt = now
		cat.UpdatedAt = now
		if _, err := cli.catalogRepo.CreateCategory(ctx, cat); err != nil {
			return err
		}
		logger.Printf("Created: %s", cat.Name)
	}
	return nil
}
