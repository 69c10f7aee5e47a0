package provider

import "strings"

// ChainID is a CAIP-2 style network identifier, e.g. "eip155:1".
// Comparisons are case-insensitive; tables store the normalized form.
type ChainID string

// Normalize returns the lowercased, trimmed form used for every table lookup.
func (c ChainID) Normalize() ChainID {
	return ChainID(strings.ToLower(strings.TrimSpace(string(c))))
}

func (c ChainID) String() string {
	return string(c)
}

// QueryParams describes one inbound request as extracted by the router.
type QueryParams struct {
	// ChainID of the network the request targets
	ChainID ChainID

	// ProjectID of the calling client, passed through untouched
	ProjectID string
}

// NewQueryParams builds the per-request descriptor. The chain identifier is
// normalized here, once, at the boundary.
func NewQueryParams(chainID, projectID string) QueryParams {
	return QueryParams{
		ChainID:   ChainID(chainID).Normalize(),
		ProjectID: projectID,
	}
}
