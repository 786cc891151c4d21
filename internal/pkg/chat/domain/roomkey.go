package chat

import (
	"sort"
	"strings"
)

// ComputeRoomKey derives a deterministic room key from the correlation
// context and the participant set: product takes precedence over order, else
// the literal "general", followed by the sorted de-duplicated user ids. The
// same context and people therefore always map to the same room, which is
// what makes EnsureRoom idempotent across callers.
func ComputeRoomKey(orderID, productID *string, participants []Participant) string {
	ctx := "general"
	if productID != nil && *productID != "" {
		ctx = *productID
	} else if orderID != nil && *orderID != "" {
		ctx = *orderID
	}

	seen := make(map[string]struct{}, len(participants))
	ids := make([]string, 0, len(participants))
	for _, p := range participants {
		if p.UserID == "" {
			continue
		}
		if _, dup := seen[p.UserID]; dup {
			continue
		}
		seen[p.UserID] = struct{}{}
		ids = append(ids, p.UserID)
	}
	sort.Strings(ids)

	return "ctx-" + ctx + "-" + strings.Join(ids, "-")
}
