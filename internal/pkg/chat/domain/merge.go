package chat

// MergeRoom applies the idempotent re-creation rules to an existing room:
// incoming non-nil fields win, absent ones keep the existing value, and
// updated_at never moves backwards. Identity fields (id, key, created_at)
// are untouched. Pure function so the merge semantics are testable on their
// own, independent of either storage variant.
func MergeRoom(existing Room, incoming RoomUpsert) Room {
	merged := existing
	if incoming.Subject != nil {
		merged.Subject = incoming.Subject
	}
	if incoming.OrderID != nil {
		merged.OrderID = incoming.OrderID
	}
	if incoming.ProductID != nil {
		merged.ProductID = incoming.ProductID
	}
	if incoming.Now > merged.UpdatedAt {
		merged.UpdatedAt = incoming.Now
	}
	return merged
}

// MergeParticipant upserts membership attributes without ever touching the
// read cursor or the first join time.
func MergeParticipant(existing *Participant, incoming Participant, now int64) Participant {
	if existing == nil {
		incoming.LastReadTs = 0
		incoming.JoinedAt = now
		return incoming
	}
	merged := *existing
	merged.Name = incoming.Name
	merged.Role = incoming.Role
	return merged
}
