package button

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// CommandType selects where a rendered command is sent.
type CommandType int

const (
	CommandTypeChat CommandType = iota
	CommandTypeServer
	CommandTypeClient
)

var commandTypeNames = map[CommandType]string{
	CommandTypeChat:   "Chat",
	CommandTypeServer: "Server",
	CommandTypeClient: "Client",
}

func (t CommandType) String() string {
	if name, ok := commandTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("CommandType(%d)", int(t))
}

// ParseCommandType converts "Chat", "Server" or "Client" (case-insensitive) to a CommandType.
func ParseCommandType(s string) (CommandType, error) {
	for t, name := range commandTypeNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown command type %q", s)
}

func (t CommandType) MarshalJSON() ([]byte, error) {
	name, ok := commandTypeNames[t]
	if !ok {
		return nil, fmt.Errorf("cannot marshal unknown command type %d", int(t))
	}
	return json.Marshal(name)
}

func (t *CommandType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("command type must be a string: %w", err)
	}
	parsed, err := ParseCommandType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// CommandTemplate is a command string with placeholder tokens and the channel it is dispatched on.
type CommandTemplate struct {
	Type    CommandType `json:"Type"`
	Command string      `json:"Command"`
}

// Behavior is the stored configuration controlling how a button reacts to a press.
// Commands are kept in insertion order: that is the execution order and the index
// space for random selection.
type Behavior struct {
	RequireButtonPowered      bool              `json:"Require Button Powered"`
	DisablePowerOutputOnPress bool              `json:"Disable Power Output On Press"`
	RunRandomCommand          bool              `json:"Run Random Command"`
	CooldownSeconds           float64           `json:"Cooldown Seconds"`
	Commands                  []CommandTemplate `json:"Commands"`
}

// Cooldown returns CooldownSeconds as a duration. Negative values mean no cooldown.
func (b Behavior) Cooldown() time.Duration {
	if b.CooldownSeconds <= 0 {
		return 0
	}
	return time.Duration(b.CooldownSeconds * float64(time.Second))
}

// Clone returns a copy that does not share the command slice.
func (b Behavior) Clone() Behavior {
	out := b
	if b.Commands != nil {
		out.Commands = make([]CommandTemplate, len(b.Commands))
		copy(out.Commands, b.Commands)
	}
	return out
}

// Validate reports every problem found in the behavior.
func (b Behavior) Validate() error {
	var errs []error
	if b.CooldownSeconds < 0 {
		errs = append(errs, fmt.Errorf("cooldown seconds must be >= 0, got %v", b.CooldownSeconds))
	}
	for i, cmd := range b.Commands {
		if _, ok := commandTypeNames[cmd.Type]; !ok {
			errs = append(errs, fmt.Errorf("command %d: unknown type %d", i, int(cmd.Type)))
		}
		if strings.TrimSpace(cmd.Command) == "" {
			errs = append(errs, fmt.Errorf("command %d: command text is empty", i))
		}
	}
	return errors.Join(errs...)
}

// StoredData is the persisted document: button id to behavior.
type StoredData struct {
	Version      string              `json:"Version,omitempty"`
	PressButtons map[uint64]Behavior `json:"Press Buttons"`
}

// NewStoredData returns an empty document stamped with the current version.
func NewStoredData() *StoredData {
	return &StoredData{
		Version:      CurrentVersion,
		PressButtons: make(map[uint64]Behavior),
	}
}

// DefaultBehavior is the record inserted for a newly registered button.
func DefaultBehavior() Behavior {
	return Behavior{
		RequireButtonPowered:      true,
		DisablePowerOutputOnPress: true,
		RunRandomCommand:          false,
		CooldownSeconds:           60,
		Commands: []CommandTemplate{
			{Type: CommandTypeChat, Command: "Hello, {PlayerName}!"},
			{Type: CommandTypeServer, Command: "inventory.giveto {PlayerId} scrap 50"},
			{Type: CommandTypeClient, Command: "heli.calltome"},
		},
	}
}
