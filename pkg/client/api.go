package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Sternrassler/thema-client/pkg/catalog"
	"github.com/Sternrassler/thema-client/pkg/dataset"
	"github.com/Sternrassler/thema-client/pkg/query"
	"github.com/Sternrassler/thema-client/pkg/result"
)

// FetchMasterData performs an authenticated GET of a master data path and
// returns the raw body. It implements catalog.Fetcher.
func (c *Client) FetchMasterData(ctx context.Context, path string) ([]byte, error) {
	status, body, err := c.withReauth(ctx, "master data", path, func(token string) (int, []byte, error) {
		return c.call(ctx, http.MethodGet, path, token, nil)
	})
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, newAPIError("master data", status, body)
	}
	return body, nil
}

// FetchInstance posts one query instance to the family's data endpoint. A
// successful response without rows, or one whose body cannot be read as
// data, yields no rows. It implements batch.InstanceFetcher.
func (c *Client) FetchInstance(ctx context.Context, fam dataset.Family, inst query.Instance) ([]result.Row, error) {
	op := string(fam.Kind) + " data"
	status, body, err := c.withReauth(ctx, op, fam.DataPath, func(token string) (int, []byte, error) {
		return c.call(ctx, http.MethodPost, fam.DataPath, token, inst)
	})
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, newAPIError(op, status, body)
	}

	key := fam.DataKey
	if key == "" {
		key = dataset.DataKey
	}
	rows, err := decodeRows(body, key)
	if err != nil {
		c.logger.Warn().
			Err(err).
			Str("endpoint", fam.DataPath).
			Str("instance", inst.String()).
			Msg("Unreadable data response, treating as empty")
		return nil, nil
	}
	return rows, nil
}

// MasterData returns the catalog of kind's master data, loading it on
// first use.
func (c *Client) MasterData(ctx context.Context, kind dataset.Kind) (*catalog.Catalog, error) {
	fam, err := dataset.Lookup(kind)
	if err != nil {
		return nil, err
	}
	return c.catalogs.Load(ctx, fam.MasterDataPath)
}

// ReloadMasterData fetches kind's master data again and replaces the
// catalog.
func (c *Client) ReloadMasterData(ctx context.Context, kind dataset.Kind) (*catalog.Catalog, error) {
	fam, err := dataset.Lookup(kind)
	if err != nil {
		return nil, err
	}
	return c.catalogs.Reload(ctx, fam.MasterDataPath)
}

// LoadedMasterData returns kind's catalog without fetching it. It fails with
// catalog.ErrNotLoaded until MasterData or Fetch has loaded it.
func (c *Client) LoadedMasterData(kind dataset.Kind) (*catalog.Catalog, error) {
	fam, err := dataset.Lookup(kind)
	if err != nil {
		return nil, err
	}
	return c.catalogs.Current(fam.MasterDataPath)
}

// MasterDataSource loads the catalog of any master data source, including
// those without a data family such as hydrogen.
func (c *Client) MasterDataSource(ctx context.Context, src dataset.Source) (*catalog.Catalog, error) {
	return c.catalogs.Load(ctx, src.Path)
}

// NewestEdition returns the newest edition in kind's master data, restricted
// to region unless it is empty.
func (c *Client) NewestEdition(ctx context.Context, kind dataset.Kind, region string) (string, error) {
	cat, err := c.MasterData(ctx, kind)
	if err != nil {
		return "", err
	}
	return cat.NewestEdition(region)
}

// Expand validates tmpl and expands it against kind's master data without
// fetching any data.
func (c *Client) Expand(ctx context.Context, kind dataset.Kind, tmpl query.Template) (*query.Expansion, error) {
	fam, err := dataset.Lookup(kind)
	if err != nil {
		return nil, err
	}
	return c.expand(ctx, fam, tmpl)
}

func (c *Client) expand(ctx context.Context, fam dataset.Family, tmpl query.Template) (*query.Expansion, error) {
	// required fields are checked before any master data is loaded
	if err := query.Validate(tmpl, fam.Required); err != nil {
		return nil, fmt.Errorf("%s query: %w", fam.Kind, err)
	}
	cat, err := c.catalogs.Load(ctx, fam.MasterDataPath)
	if err != nil {
		return nil, err
	}
	exp, err := query.Expand(tmpl, fam.Plan(c.config.AllEditions), cat)
	if err != nil {
		return nil, fmt.Errorf("%s query: %w", fam.Kind, err)
	}
	return exp, nil
}

// Fetch expands tmpl and retrieves data for every resulting instance.
//
// With no candidate set in the template exactly one request is made and an
// empty answer is batch.ErrNoData. Otherwise empty answers are recorded in
// the result's rejection ledger, and in the client-wide ledger returned by
// Rejected, and the run fails with batch.ErrNoValidCombinations only if no
// combination returned data.
func (c *Client) Fetch(ctx context.Context, kind dataset.Kind, tmpl query.Template) (*result.Result, error) {
	if c.isClosed() {
		return nil, ErrClosed
	}
	fam, err := dataset.Lookup(kind)
	if err != nil {
		return nil, err
	}

	exp, err := c.expand(ctx, fam, tmpl)
	if err != nil {
		return nil, err
	}

	c.logger.Info().
		Str("kind", string(kind)).
		Int("instances", len(exp.Instances)).
		Int("combinations", exp.Unpruned).
		Int("pruned", exp.Pruned).
		Msg("Query expanded")

	res, err := c.batch.Run(ctx, fam, exp)
	if err != nil {
		return nil, err
	}
	c.rejected.Merge(res.Rejected)
	return res, nil
}

// Rejected returns a copy of every rejected combination recorded since the
// client was created. It is empty, never nil, when nothing was rejected.
func (c *Client) Rejected() *result.Ledger {
	return c.rejected.Copy()
}
