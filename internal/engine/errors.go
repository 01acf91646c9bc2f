package engine

import "errors"

// Domain faults returned by store operations. Mutation inputs fail fast:
// the operation is rejected and state is unchanged.
var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrUnknownQuest       = errors.New("unknown quest id")
	ErrUnknownItem        = errors.New("unknown catalog item")
	ErrUnknownCategory    = errors.New("unknown cosmetic category")
	ErrNotOwned           = errors.New("item not owned")
	ErrCategoryMismatch   = errors.New("item does not fit category")
	ErrInsufficientTokens = errors.New("insufficient tokens")
)
