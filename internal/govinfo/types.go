package govinfo

// PackageMeta identifies one day's publication unit in a collection.
type PackageMeta struct {
	PackageID  string `json:"packageId"`
	DateIssued string `json:"dateIssued"`
}

// GranuleMeta identifies one sub-document within a package.
type GranuleMeta struct {
	GranuleID    string `json:"granuleId"`
	GranuleClass string `json:"granuleClass"`
	Title        string `json:"title"`
}

// GranuleSummary is the per-granule metadata document. Only the download
// map and title are consumed; everything else is ignored.
type GranuleSummary struct {
	Title    string            `json:"title"`
	Download map[string]string `json:"download"`
}

// packagesPage is one page of the packages-in-collection listing.
type packagesPage struct {
	Packages []PackageMeta `json:"packages"`
}

// granulesPage is one page of the granules-in-package listing.
type granulesPage struct {
	Granules []GranuleMeta `json:"granules"`
}

// downloadKeys is the strict preference order for granule content links.
// Structured markup beats plain text beats either rendered-markup key.
var downloadKeys = []string{"xmlLink", "txtLink", "htmLink", "htmlLink"}

// Resolution is the outcome of resolving one granule's text. Found is
// false when the summary carries no usable download link; that is not an
// error, the granule is simply skipped.
type Resolution struct {
	Body    string
	Found   bool
	Summary GranuleSummary
}
