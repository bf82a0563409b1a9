package pilot

import (
	"fmt"
	"strings"

	"github.com/ironsheep/linefollow-vision/internal/perception"
)

// Mode is the driver state.
type Mode int

const (
	ModeFollowing Mode = iota
	ModeAdjusting
)

func (m Mode) String() string {
	switch m {
	case ModeFollowing:
		return "following"
	case ModeAdjusting:
		return "adjusting"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// CommandKind says what the actuation side should do.
type CommandKind int

const (
	// CommandSteer applies Turn while following the line.
	CommandSteer CommandKind = iota

	// CommandHold keeps the previous actuation; the frame had no decision.
	CommandHold

	// CommandStop halts the vehicle.
	CommandStop

	// CommandAdjust creeps toward the marker; Zone and Turn say how.
	CommandAdjust

	// CommandCentered ends an adjustment.
	CommandCentered
)

var commandNames = map[CommandKind]string{
	CommandSteer:    "steer",
	CommandHold:     "hold",
	CommandStop:     "stop",
	CommandAdjust:   "adjust",
	CommandCentered: "centered",
}

func (k CommandKind) String() string {
	if name, ok := commandNames[k]; ok {
		return name
	}
	return fmt.Sprintf("CommandKind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k CommandKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// AllCommandKinds lists the kinds in declaration order.
func AllCommandKinds() []CommandKind {
	return []CommandKind{CommandSteer, CommandHold, CommandStop, CommandAdjust, CommandCentered}
}

// Command is one actuation decision. It is a plain value; how it reaches the
// motors is up to the Sink.
type Command struct {
	// Seq numbers published commands from 1.
	Seq  int         `json:"seq"`
	Mode Mode        `json:"mode"`
	Kind CommandKind `json:"kind"`

	Turn  perception.Turn `json:"turn"`
	Error int             `json:"error"`
	MeanY int             `json:"mean_y"`

	// Zone is set on Adjust and Centered commands.
	Zone perception.AdjustZone `json:"zone"`

	// Matches is the marker match count seen on this frame.
	Matches int `json:"matches"`

	// MarkerConfirmed marks the Stop that starts an adjustment.
	MarkerConfirmed bool `json:"marker_confirmed"`

	// Steering is the full decision the command was derived from, when the
	// frame went through the line follower.
	Steering perception.SteeringDecision `json:"steering"`
}

func (c Command) String() string {
	return fmt.Sprintf("#%d %s/%s turn=%s error=%d mean_y=%d zone=%s matches=%d",
		c.Seq, c.Mode, c.Kind, c.Turn, c.Error, c.MeanY, c.Zone, c.Matches)
}

// NoDecisionPolicy chooses the command for a following frame without a
// valid steering decision.
type NoDecisionPolicy int

const (
	// HoldOnNoDecision keeps the last actuation.
	HoldOnNoDecision NoDecisionPolicy = iota

	// StopOnNoDecision halts the vehicle.
	StopOnNoDecision
)

func (p NoDecisionPolicy) String() string {
	switch p {
	case HoldOnNoDecision:
		return "hold"
	case StopOnNoDecision:
		return "stop"
	}
	return fmt.Sprintf("NoDecisionPolicy(%d)", int(p))
}

// ParseNoDecisionPolicy converts "hold" or "stop". The empty string selects
// HoldOnNoDecision.
func ParseNoDecisionPolicy(s string) (NoDecisionPolicy, error) {
	switch strings.ToLower(s) {
	case "", "hold":
		return HoldOnNoDecision, nil
	case "stop":
		return StopOnNoDecision, nil
	}
	return 0, fmt.Errorf("unknown no-decision policy %q (want hold or stop)", s)
}

// MarshalText implements encoding.TextMarshaler.
func (p NoDecisionPolicy) MarshalText() ([]byte, error) {
	switch p {
	case HoldOnNoDecision, StopOnNoDecision:
		return []byte(p.String()), nil
	}
	return nil, fmt.Errorf("unknown no-decision policy %d", int(p))
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *NoDecisionPolicy) UnmarshalText(text []byte) error {
	parsed, err := ParseNoDecisionPolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
