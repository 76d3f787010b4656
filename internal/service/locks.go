package service

import (
	"sync"

	"github.com/google/uuid"
)

// TournamentLocks serializes mutations per tournament. Unrelated tournaments never wait on each other.
type TournamentLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*tournamentLock
}

type tournamentLock struct {
	mu   sync.Mutex
	refs int
}

func NewTournamentLocks() *TournamentLocks {
	return &TournamentLocks{locks: make(map[uuid.UUID]*tournamentLock)}
}

// Lock blocks until the tournament is free and returns the matching unlock.
func (l *TournamentLocks) Lock(id uuid.UUID) func() {
	l.mu.Lock()
	lock, ok := l.locks[id]
	if !ok {
		lock = &tournamentLock{}
		l.locks[id] = lock
	}
	lock.refs++
	l.mu.Unlock()

	lock.mu.Lock()

	return func() {
		lock.mu.Unlock()

		l.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

func (l *TournamentLocks) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
