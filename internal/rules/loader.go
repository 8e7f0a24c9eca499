package rules

import (
	"context"

	"golang.org/x/sync/errgroup"
)

const maxConcurrentLoads = 4

// LoadFiles reads every path concurrently and returns the rules in path
// order. The first failure cancels the remaining reads.
func LoadFiles(ctx context.Context, paths []string) ([]Rule, error) {
	perFile := make([][]Rule, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLoads)
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rs, err := LoadFile(p)
			if err != nil {
				return err
			}
			perFile[i] = rs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []Rule
	for _, rs := range perFile {
		all = append(all, rs...)
	}
	return all, nil
}
