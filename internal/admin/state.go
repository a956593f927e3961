package admin

import (
	"sync"

	"partnerbot/internal/storage"
)

// step is the per-caller conversation state: a tagged union with one variant
// per workflow step, each carrying exactly the fields that step needs.
type step interface{ isStep() }

type (
	stepAddUsername struct{}
	stepAddPassword struct{ Username string }

	stepEditSelect      struct{}
	stepEditAction      struct{ UserID int64 }
	stepEditNewUsername struct{ UserID int64 }
	stepEditNewPassword struct{ UserID int64 }

	stepDeleteSelect struct{}

	stepBroadcastContent struct{}

	stepSendSelect  struct{}
	stepSendContent struct {
		TargetID         int64
		TargetUsername   string
		TargetTelegramID int64
	}

	stepChannelID struct{ Kind storage.ChannelKind }

	stepWelcomeText struct{}
)

func (stepAddUsername) isStep()      {}
func (stepAddPassword) isStep()      {}
func (stepEditSelect) isStep()       {}
func (stepEditAction) isStep()       {}
func (stepEditNewUsername) isStep()  {}
func (stepEditNewPassword) isStep()  {}
func (stepDeleteSelect) isStep()     {}
func (stepBroadcastContent) isStep() {}
func (stepSendSelect) isStep()       {}
func (stepSendContent) isStep()      {}
func (stepChannelID) isStep()        {}
func (stepWelcomeText) isStep()      {}

// sessions tracks at most one active conversation state per caller.
type sessions struct {
	mu sync.Mutex
	m  map[int64]step
}

func newSessions() *sessions {
	return &sessions{m: map[int64]step{}}
}

func (s *sessions) Get(callerID int64) step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m[callerID]
}

func (s *sessions) Set(callerID int64, st step) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[callerID] = st
}

func (s *sessions) Clear(callerID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, callerID)
}
