package main

// RunPhase represents the lifecycle of a run
type RunPhase int

const (
	PhasePlaying       RunPhase = 0
	PhaseGameOver      RunPhase = 1 // every player is dead
	PhaseStageComplete RunPhase = 2 // survived the configured stage length
)

func (p RunPhase) String() string {
	switch p {
	case PhasePlaying:
		return "playing"
	case PhaseGameOver:
		return "game_over"
	case PhaseStageComplete:
		return "stage_complete"
	}
	return "unknown"
}

// ModeController decides when a run ends
type ModeController struct {
	phase        RunPhase
	stageSeconds float64 // 0 = endless
	endedAt      float64
}

// NewModeController creates a controller in the playing phase
func NewModeController(stageSeconds float64) *ModeController {
	return &ModeController{stageSeconds: stageSeconds}
}

// Phase returns the current phase
func (m *ModeController) Phase() RunPhase {
	return m.phase
}

// Running reports whether the run is still being played
func (m *ModeController) Running() bool {
	return m.phase == PhasePlaying
}

// EndedAt is the elapsed time the run ended at, 0 while running
func (m *ModeController) EndedAt() float64 {
	return m.endedAt
}

// Evaluate checks the end conditions and returns true on the tick the
// run leaves the playing phase. A wipe wins over a stage clear on the
// same tick.
func (m *ModeController) Evaluate(elapsed float64, alive, total int) bool {
	if m.phase != PhasePlaying {
		return false
	}
	switch {
	case total > 0 && alive == 0:
		m.phase = PhaseGameOver
	case m.stageSeconds > 0 && elapsed >= m.stageSeconds:
		m.phase = PhaseStageComplete
	default:
		return false
	}
	m.endedAt = elapsed
	return true
}

// Reset starts a new run
func (m *ModeController) Reset() {
	m.phase = PhasePlaying
	m.endedAt = 0
}
