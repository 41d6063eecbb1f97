package main

import "encoding/json"

// Client -> Server message types
const (
	MsgJoin     = "join"
	MsgLeave    = "leave"
	MsgCreate   = "create"  // create session
	MsgList     = "list"    // list sessions
	MsgCheck    = "check"   // check if session exists
	MsgSelect   = "select"  // pick an upgrade option
	MsgReroll   = "reroll"  // replace this round's options once
	MsgXP       = "xp"      // experience collected
	MsgKillRep  = "kill"    // enemies killed
	MsgHit      = "hit"     // damage taken
	MsgDied     = "died"    // player died on the client
	MsgRestart  = "restart" // start a new run after it ended
	MsgRegister = "register"
	MsgLogin    = "login"
	MsgAuth     = "auth" // resume with a token
	MsgProfile  = "profile"
)

// Server -> Client message types
const (
	MsgState       = "state"
	MsgWelcome     = "welcome"
	MsgSessions    = "sessions"
	MsgJoined      = "joined"
	MsgCreated     = "created" // session created, client should navigate
	MsgError       = "error"
	MsgChecked     = "checked" // session check response
	MsgOptions     = "options" // upgrade choices for the open round
	MsgHide        = "hide"    // close the upgrade panel
	MsgSync        = "sync"    // read-only mirror of the upgrade state
	MsgLevelUp     = "levelup"
	MsgPhase       = "phase" // run ended or restarted
	MsgPlayerDied  = "pdied"
	MsgAuthOK      = "auth_ok"
	MsgProfileData = "profile_data"
)

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages; json.RawMessage avoids double-unmarshal
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// JoinMsg is sent when player wants to join a session
type JoinMsg struct {
	Name      string `json:"name"`
	SessionID string `json:"sid"`
	Char      int    `json:"char"`
}

// CreateMsg is sent when player wants to create a session
type CreateMsg struct {
	Name        string `json:"name"`
	SessionName string `json:"sname"`
}

// SelectMsg submits an option index for a round
type SelectMsg struct {
	Round int `json:"round"`
	Index int `json:"index"`
}

// RerollMsg asks for new options in a round
type RerollMsg struct {
	Round int `json:"round"`
}

// AmountMsg carries a client-reported quantity (xp, kills, damage)
type AmountMsg struct {
	Amount float64 `json:"n"`
}

// OptionsMsg shows the upgrade choices. Descriptions are rendered from the
// live state at send time.
type OptionsMsg struct {
	Round        int      `json:"round"`
	Titles       []string `json:"titles"`
	Descriptions []string `json:"descs"`
	Reroll       bool     `json:"reroll"`
}

// HideMsg closes the upgrade panel for a round
type HideMsg struct {
	Round int `json:"round"`
}

// SyncMsg mirrors a player's upgrade state after a round
type SyncMsg struct {
	PlayerID string          `json:"pid"`
	Upgrades UpgradeSnapshot `json:"up"`
}

// LevelUpMsg announces a team level
type LevelUpMsg struct {
	Level int `json:"lvl"`
}

// PhaseMsg announces the end or restart of a run
type PhaseMsg struct {
	Phase   string  `json:"phase"`
	Elapsed float64 `json:"elapsed"`
	Level   int     `json:"lvl"`
	Kills   int     `json:"kills"`
	Coins   int     `json:"coins"` // this player's coins for the run
}

// PlayerDiedMsg is broadcast when a teammate goes down
type PlayerDiedMsg struct {
	ID   string `json:"id"`
	Name string `json:"n"`
}

// PlayerState is broadcast per player each frame
type PlayerState struct {
	ID     string        `json:"id" msgpack:"id"`
	Name   string        `json:"n" msgpack:"n"`
	Char   int           `json:"c" msgpack:"c"`
	HP     float64       `json:"hp" msgpack:"hp"`
	MaxHP  float64       `json:"mhp" msgpack:"mhp"`
	Alive  bool          `json:"a" msgpack:"a"`
	Kills  int           `json:"k" msgpack:"k"`
	Coins  int           `json:"co" msgpack:"co"`
	Attack AttackProfile `json:"atk" msgpack:"atk"`
}

// GameState is the full state frame, sent as msgpack
type GameState struct {
	Players   []PlayerState `json:"p" msgpack:"p"`
	Spawn     SpawnParams   `json:"sp" msgpack:"sp"`
	Orders    []SpawnOrder  `json:"o" msgpack:"o"`
	Alive     int           `json:"en" msgpack:"en"` // enemies alive
	Elapsed   float64       `json:"el" msgpack:"el"`
	Frozen    bool          `json:"fz" msgpack:"fz"`
	Level     int           `json:"lvl" msgpack:"lvl"`
	XP        float64       `json:"xp" msgpack:"xp"`
	XPNext    float64       `json:"xpn" msgpack:"xpn"`
	Round     int           `json:"rd" msgpack:"rd"`
	RoundOpen bool          `json:"ro" msgpack:"ro"`
	Enrage    bool          `json:"enr" msgpack:"enr"`
	Phase     int           `json:"ph" msgpack:"ph"`
	Tick      uint64        `json:"tick" msgpack:"tick"`
}

// WelcomeMsg is sent to a player when they join
type WelcomeMsg struct {
	ID    string `json:"id"`
	Char  int    `json:"char"`
	Round int    `json:"round"` // open round they are not part of, 0 if none
}

// SessionInfo is used in the session list
type SessionInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Players int    `json:"players"`
	Level   int    `json:"lvl"`
}

// ErrorMsg sends error to client
type ErrorMsg struct {
	Msg string `json:"msg"`
}

// CheckMsg is sent by client to check if a session exists
type CheckMsg struct {
	SID string `json:"sid"`
}

// CheckedMsg is the response to a session check
type CheckedMsg struct {
	SID     string `json:"sid"`
	Exists  bool   `json:"exists"`
	Name    string `json:"name,omitempty"`
	Players int    `json:"players,omitempty"`
}

// RegisterMsg creates an account
type RegisterMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginMsg authenticates an account
type LoginMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthMsg resumes a session from a stored token
type AuthMsg struct {
	Token string `json:"token"`
}

// AuthOKMsg confirms authentication
type AuthOKMsg struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	PlayerID int64  `json:"pid"`
}

// ProfileDataMsg returns the account's wallet and run stats
type ProfileDataMsg struct {
	Username  string  `json:"username"`
	Coins     int     `json:"coins"`
	Runs      int     `json:"runs"`
	Kills     int     `json:"kills"`
	BestLevel int     `json:"best_level"`
	BestTime  float64 `json:"best_time"`
}
