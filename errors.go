package helios

import "errors"

var (
	// ErrPolicyNotFound is returned when a policy name has no edges in the graph.
	ErrPolicyNotFound = errors.New("helios: policy not found in knowledge graph")

	// ErrNoDocuments is returned when a rebuild finds nothing to extract from.
	ErrNoDocuments = errors.New("helios: no readable documents found")
)
