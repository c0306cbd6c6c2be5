package models

import (
	"math"

	"membership-backend/internal/common/errors"
)

// Level holds a user's progression state. The nextLevelXP threshold is a
// function of the current level and must never be observed stale: Normalize
// is called after every load, before every save, and by SetCurrentLevel.
type Level struct {
	UserID       int64 `json:"-"`
	CurrentLevel int   `json:"current_level"`
	CurrentXP    int64 `json:"current_xp"`
	NextLevelXP  int64 `json:"next_level_xp"`
}

// NewLevel returns the default level for a freshly created user.
func NewLevel(userID int64) *Level {
	l := &Level{UserID: userID, CurrentLevel: 1}
	l.Normalize()
	return l
}

// Threshold computes the XP required to leave the given level.
func Threshold(level int) int64 {
	if level < 1 {
		level = 1
	}
	return int64(100 * math.Pow(float64(level), 1.5))
}

// Normalize clamps the level to a minimum of 1 and recomputes the threshold.
func (l *Level) Normalize() {
	if l.CurrentLevel < 1 {
		l.CurrentLevel = 1
	}
	l.NextLevelXP = Threshold(l.CurrentLevel)
}

// SetCurrentLevel sets the level and keeps the threshold in sync.
func (l *Level) SetCurrentLevel(level int) {
	l.CurrentLevel = level
	l.Normalize()
}

// AwardXP accumulates amount into the level state, resolving as many
// level-ups as the deposit covers. Returns the resulting level. The receiver
// is left unchanged when amount is not positive.
func (l *Level) AwardXP(amount int64) (int, error) {
	if amount <= 0 {
		return l.CurrentLevel, errors.NewValidationError("amount", "XP to add must be positive")
	}

	l.Normalize()

	xp := l.CurrentXP + amount
	for xp >= l.NextLevelXP {
		xp -= l.NextLevelXP
		l.SetCurrentLevel(l.CurrentLevel + 1)
	}

	l.CurrentXP = xp
	return l.CurrentLevel, nil
}

// Snapshot is the level projection returned to callers.
type Snapshot struct {
	CurrentLevel    int   `json:"current_level" example:"2"`
	CurrentXP       int64 `json:"current_xp" example:"150"`
	NextLevelXP     int64 `json:"next_level_xp" example:"282"`
	ProgressPercent int   `json:"progress_percent" example:"53"`
}

// ToSnapshot projects the level state, guarding against a zero threshold.
func (l *Level) ToSnapshot() *Snapshot {
	progress := 0
	if l.NextLevelXP > 0 {
		progress = int(l.CurrentXP * 100 / l.NextLevelXP)
	}
	return &Snapshot{
		CurrentLevel:    l.CurrentLevel,
		CurrentXP:       l.CurrentXP,
		NextLevelXP:     l.NextLevelXP,
		ProgressPercent: progress,
	}
}
