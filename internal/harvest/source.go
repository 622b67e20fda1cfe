package harvest

import (
	"context"

	"github.com/JakeFAU/crec-harvester/internal/govinfo"
)

// GovinfoSource adapts the govinfo client and resolver to the engine's
// Source interface, scoping package walks to the CREC collection.
type GovinfoSource struct {
	Client   *govinfo.Client
	Resolver *govinfo.Resolver
	Pace     govinfo.PaceFunc
}

// Packages walks CREC packages in the inclusive date range.
func (s *GovinfoSource) Packages(startDate, endDate string) PackageWalker {
	return s.Client.Packages(govinfo.CollectionCREC, startDate, endDate, s.Pace)
}

// Granules walks the granules of one package.
func (s *GovinfoSource) Granules(packageID string) GranuleWalker {
	return s.Client.Granules(packageID, s.Pace)
}

// Resolve fetches one granule's summary and document body.
func (s *GovinfoSource) Resolve(ctx context.Context, packageID, granuleID string) (govinfo.Resolution, error) {
	return s.Resolver.Resolve(ctx, packageID, granuleID)
}
