package main

// RoundHost is what the coordinator needs from the session around it
type RoundHost interface {
	// GenerateFor builds a fresh option list for one client
	GenerateFor(clientID string) []UpgradeOption
	ShowOptions(clientID string, roundID int, opts []UpgradeOption, rerollAvailable bool)
	HideOptions(clientID string, roundID int)
	// ApplySelection runs the chosen option against the client's state and
	// pushes the derived attack parameters
	ApplySelection(clientID string, opt UpgradeOption)
	Freeze()
	Unfreeze()
}

// RoundCoordinator runs the upgrade round state machine: Closed -> Open -> Closed.
// A round only closes once every pending client has answered. It has no
// timeout: a client that vanishes without DropClient keeps the round open.
//
// Not safe for concurrent use. The game calls it from its tick only.
type RoundCoordinator struct {
	host    RoundHost
	roundID int
	open    bool

	order      []string // clients of the open round, in registration order
	pending    map[string]bool
	options    map[string][]UpgradeOption
	selections map[string]int
	reroll     map[string]bool
}

// NewRoundCoordinator creates a closed coordinator
func NewRoundCoordinator(host RoundHost) *RoundCoordinator {
	return &RoundCoordinator{host: host}
}

// IsOpen reports whether a round is waiting on clients
func (rc *RoundCoordinator) IsOpen() bool {
	return rc.open
}

// RoundID is the id of the open round, or of the last one if closed
func (rc *RoundCoordinator) RoundID() int {
	return rc.roundID
}

// Pending returns how many clients have not answered yet
func (rc *RoundCoordinator) Pending() int {
	return len(rc.pending)
}

// IsPending reports whether the client still owes an answer
func (rc *RoundCoordinator) IsPending(clientID string) bool {
	return rc.open && rc.pending[clientID]
}

// Options returns the list currently offered to a client
func (rc *RoundCoordinator) Options(clientID string) []UpgradeOption {
	if !rc.open {
		return nil
	}
	return rc.options[clientID]
}

// RerollAvailable reports whether the client may still reroll this round
func (rc *RoundCoordinator) RerollAvailable(clientID string) bool {
	return rc.open && rc.reroll[clientID]
}

// BeginRound opens a round for the given clients and freezes the clock.
// It is a no-op returning false when a round is already open or there
// is nobody to ask.
func (rc *RoundCoordinator) BeginRound(clients []string) bool {
	if rc.open || len(clients) == 0 {
		return false
	}
	rc.roundID++
	rc.open = true
	rc.order = make([]string, 0, len(clients))
	rc.pending = make(map[string]bool, len(clients))
	rc.options = make(map[string][]UpgradeOption, len(clients))
	rc.selections = make(map[string]int, len(clients))
	rc.reroll = make(map[string]bool, len(clients))

	for _, id := range clients {
		if rc.pending[id] {
			continue
		}
		rc.order = append(rc.order, id)
		rc.pending[id] = true
		rc.reroll[id] = true
		rc.options[id] = rc.host.GenerateFor(id)
	}

	rc.host.Freeze()
	for _, id := range rc.order {
		rc.host.ShowOptions(id, rc.roundID, rc.options[id], true)
	}
	return true
}

// Submit records a client's choice. Stale round ids, unknown or already
// answered clients and out-of-range indexes are ignored. The last
// outstanding answer applies every selection and closes the round.
func (rc *RoundCoordinator) Submit(clientID string, index, roundID int) bool {
	if !rc.open || roundID != rc.roundID || !rc.pending[clientID] {
		return false
	}
	opts := rc.options[clientID]
	if index < 0 || index >= len(opts) {
		return false
	}
	rc.selections[clientID] = index
	rc.reroll[clientID] = false
	delete(rc.pending, clientID)
	rc.host.HideOptions(clientID, rc.roundID)

	if len(rc.pending) == 0 {
		rc.applyAndClose()
	}
	return true
}

// Reroll replaces a pending client's options once per round
func (rc *RoundCoordinator) Reroll(clientID string, roundID int) bool {
	if !rc.open || roundID != rc.roundID || !rc.pending[clientID] || !rc.reroll[clientID] {
		return false
	}
	rc.reroll[clientID] = false
	rc.options[clientID] = rc.host.GenerateFor(clientID)
	rc.host.ShowOptions(clientID, rc.roundID, rc.options[clientID], false)
	return true
}

// DropClient forgets a client that left the session. If it was the last
// pending one the round closes with everyone else's selections.
func (rc *RoundCoordinator) DropClient(clientID string) {
	if !rc.open {
		return
	}
	wasPending := rc.pending[clientID]
	delete(rc.pending, clientID)
	delete(rc.selections, clientID)
	delete(rc.options, clientID)
	delete(rc.reroll, clientID)
	for i, id := range rc.order {
		if id == clientID {
			rc.order = append(rc.order[:i], rc.order[i+1:]...)
			break
		}
	}
	if wasPending && len(rc.pending) == 0 {
		rc.applyAndClose()
	}
}

// Abort closes an open round without applying anything (session reset)
func (rc *RoundCoordinator) Abort() {
	if !rc.open {
		return
	}
	for _, id := range rc.order {
		if rc.pending[id] {
			rc.host.HideOptions(id, rc.roundID)
		}
	}
	rc.clear()
	rc.host.Unfreeze()
}

func (rc *RoundCoordinator) applyAndClose() {
	for _, id := range rc.order {
		idx, ok := rc.selections[id]
		if !ok {
			continue
		}
		rc.host.ApplySelection(id, rc.options[id][idx])
	}
	rc.clear()
	rc.host.Unfreeze()
}

func (rc *RoundCoordinator) clear() {
	rc.open = false
	rc.order = nil
	rc.pending = nil
	rc.options = nil
	rc.selections = nil
	rc.reroll = nil
}
