// Package hierarchy computes the transitive closure of the reports-to graph.
package hierarchy

import (
	"context"

	"github.com/google/uuid"

	"github.com/fieldforce-hq/fieldforce/internal/shared"
)

// Graph exposes the reports-to relation one level at a time.
type Graph interface {
	// DirectReports returns the ids of users whose reports_to is one of the
	// given manager ids.
	DirectReports(ctx context.Context, managerIDs []uuid.UUID) ([]uuid.UUID, error)
}

// Visibility is the result of a visible-user query. Unrestricted means the
// caller may see every record and consumers must not filter at all.
type Visibility struct {
	Unrestricted bool
	UserIDs      []uuid.UUID
}

// Contains reports whether a user id falls inside the visibility set.
func (v Visibility) Contains(id uuid.UUID) bool {
	if v.Unrestricted {
		return true
	}
	for _, visible := range v.UserIDs {
		if visible == id {
			return true
		}
	}
	return false
}

// Resolver walks the reports-to graph.
type Resolver struct {
	graph Graph
}

// NewResolver constructs a Resolver over the given graph.
func NewResolver(graph Graph) *Resolver {
	return &Resolver{graph: graph}
}

// Downline returns userID plus every direct and indirect subordinate, in no
// guaranteed order. The traversal is breadth-first, one batched lookup per
// hierarchy level, and keeps a visited set so a cyclic reports-to chain
// terminates instead of looping: a node already seen is never re-enqueued.
func (r *Resolver) Downline(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	visited := map[uuid.UUID]struct{}{userID: {}}
	result := []uuid.UUID{userID}
	frontier := []uuid.UUID{userID}

	for len(frontier) > 0 {
		reports, err := r.graph.DirectReports(ctx, frontier)
		if err != nil {
			return nil, err
		}
		frontier = frontier[:0]
		for _, id := range reports {
			if _, seen := visited[id]; seen {
				continue
			}
			visited[id] = struct{}{}
			result = append(result, id)
			frontier = append(frontier, id)
		}
	}
	return result, nil
}

// VisibleUserIDs returns the set of user ids the caller may see. The bypass
// role sees everything and gets the unrestricted sentinel; everyone else
// sees exactly their downline.
func (r *Resolver) VisibleUserIDs(ctx context.Context, userID uuid.UUID, roleName string) (Visibility, error) {
	if shared.IsBypassRole(roleName) {
		return Visibility{Unrestricted: true}, nil
	}
	ids, err := r.Downline(ctx, userID)
	if err != nil {
		return Visibility{}, err
	}
	return Visibility{UserIDs: ids}, nil
}
