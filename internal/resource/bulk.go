package resource

import (
	"context"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"sync"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

// BulkResult reports which ids a bulk operation changed. Each successful id
// is reflected in the cache individually; failed ids are left as they were.
type BulkResult struct {
	Requested int
	Succeeded []string
	Failed    map[string]error
}

func (r BulkResult) Summary() string {
	return fmt.Sprintf("%d of %d succeeded", len(r.Succeeded), r.Requested)
}

// BulkError is returned when at least one id in a bulk operation failed.
type BulkError struct {
	Result BulkResult
	Err    error
}

func (e *BulkError) Error() string {
	return e.Result.Summary()
}

func (e *BulkError) Unwrap() error {
	return e.Err
}

// BulkUpdateStatus sets status on every id concurrently.
func (c *Controller[T, P]) BulkUpdateStatus(ctx context.Context, ids []string, status string) (BulkResult, error) {
	ctx, done, err := c.begin(ctx)
	if err != nil {
		return BulkResult{}, err
	}
	defer done()

	token, err := c.requireToken("bulk_update")
	if err != nil {
		return BulkResult{}, err
	}
	p, err := c.statusPatch(status)
	if err != nil {
		return BulkResult{}, c.fail("bulk_update", err)
	}

	updated := make(map[string]T)
	var mu sync.Mutex
	res := c.fanOut(ctx, ids, func(ctx context.Context, id string) error {
		rec, err := c.put(ctx, id, p, token)
		if err != nil {
			return err
		}
		mu.Lock()
		updated[id] = rec
		mu.Unlock()
		return nil
	})

	c.commit(func() {
		for _, id := range res.Succeeded {
			c.replace(id, updated[id])
		}
	})
	return res, c.bulkErr("bulk_update", res)
}

// BulkDelete deletes every id concurrently.
func (c *Controller[T, P]) BulkDelete(ctx context.Context, ids []string) (BulkResult, error) {
	ctx, done, err := c.begin(ctx)
	if err != nil {
		return BulkResult{}, err
	}
	defer done()

	token, err := c.requireToken("bulk_delete")
	if err != nil {
		return BulkResult{}, err
	}

	res := c.fanOut(ctx, ids, func(ctx context.Context, id string) error {
		return c.transport.Do(ctx, http.MethodDelete, c.recordPath(id), nil, token, nil)
	})

	c.commit(func() {
		for _, id := range res.Succeeded {
			c.remove(id)
		}
	})
	return res, c.bulkErr("bulk_delete", res)
}

// fanOut runs fn for each distinct id with bounded concurrency and waits for
// all of them. Succeeded keeps the order of ids.
func (c *Controller[T, P]) fanOut(ctx context.Context, ids []string, fn func(ctx context.Context, id string) error) BulkResult {
	ids = dedupe(ids)
	res := BulkResult{Requested: len(ids), Failed: make(map[string]error)}

	var (
		g  errgroup.Group
		mu sync.Mutex
		ok = make(map[string]bool, len(ids))
	)
	g.SetLimit(c.cfg.BulkConcurrency)
	for _, id := range ids {
		g.Go(func() error {
			err := fn(ctx, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Failed[id] = err
				return nil
			}
			ok[id] = true
			return nil
		})
	}
	_ = g.Wait()

	for _, id := range ids {
		if ok[id] {
			res.Succeeded = append(res.Succeeded, id)
		}
	}
	return res
}

func (c *Controller[T, P]) bulkErr(op string, res BulkResult) error {
	if len(res.Failed) == 0 {
		return nil
	}
	var merr *multierror.Error
	for _, id := range slices.Sorted(maps.Keys(res.Failed)) {
		merr = multierror.Append(merr, fmt.Errorf("%s: %w", id, res.Failed[id]))
	}
	bulkErr := &BulkError{Result: res, Err: merr.ErrorOrNil()}

	// The summary, not the first wrapped failure, is the visible error.
	c.commit(func() { c.errMsg = bulkErr.Error() })
	c.logger.Warn("bulk operation partially failed", "op", op, "summary", res.Summary(), "error", merr)
	return bulkErr
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
