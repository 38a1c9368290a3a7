// Package host describes what the service reads from the game engine.
// Buttons and players are never owned here; they are read through these
// accessors only.
package host

import (
	"slices"
	"strconv"
)

// Vector3 is a world position.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Button is an in-world press button.
type Button interface {
	ID() uint64
	IsPowered() bool
}

// Player is the player acting on a button.
type Player interface {
	UserID() uint64
	UserIDString() string
	DisplayName() string
	Position() Vector3
}

// Localized is implemented by players whose preferred language is known.
type Localized interface {
	Language() string
}

// PermissionHolder is implemented by players whose granted permissions are
// reported by the host.
type PermissionHolder interface {
	HasPermission(perm string) bool
}

// Sight is the result of the host's line-of-sight query from a player's eyes.
// ButtonID is zero when the entity hit is not a press button.
type Sight struct {
	Hit      bool    `json:"hit"`
	ButtonID uint64  `json:"button_id,omitempty"`
	Distance float64 `json:"distance,omitempty"`
}

// ButtonSnapshot carries a button's state across the wire.
type ButtonSnapshot struct {
	ButtonID uint64 `json:"id"`
	Powered  bool   `json:"powered"`
}

func (b *ButtonSnapshot) ID() uint64      { return b.ButtonID }
func (b *ButtonSnapshot) IsPowered() bool { return b.Powered }

// PlayerSnapshot carries a player's state across the wire.
type PlayerSnapshot struct {
	ID          uint64   `json:"id"`
	Name        string   `json:"name"`
	Pos         Vector3  `json:"position"`
	Lang        string   `json:"language,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

func (p *PlayerSnapshot) UserID() uint64       { return p.ID }
func (p *PlayerSnapshot) UserIDString() string { return strconv.FormatUint(p.ID, 10) }
func (p *PlayerSnapshot) DisplayName() string  { return p.Name }
func (p *PlayerSnapshot) Position() Vector3    { return p.Pos }
func (p *PlayerSnapshot) Language() string     { return p.Lang }

func (p *PlayerSnapshot) HasPermission(perm string) bool {
	return slices.Contains(p.Permissions, perm)
}

var (
	_ Button           = (*ButtonSnapshot)(nil)
	_ Player           = (*PlayerSnapshot)(nil)
	_ Localized        = (*PlayerSnapshot)(nil)
	_ PermissionHolder = (*PlayerSnapshot)(nil)
)
