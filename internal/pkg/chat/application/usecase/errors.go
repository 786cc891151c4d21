package usecase

import "errors"

// ErrPersistence indicates an infrastructure/repository failure inside a use case
var ErrPersistence = errors.New("chat use case persistence error")

// ErrTooFewParticipants rejects room creation with fewer than two distinct users
var ErrTooFewParticipants = errors.New("participants must include at least 2 users")
