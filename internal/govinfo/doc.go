// Package govinfo implements the GovInfo collection API client, including
// the retrying fetcher, the offset-paginated walkers for packages and
// granules, and the granule text resolver used by the harvest engine.
package govinfo
