package watcher

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"lukechampine.com/frand"
)

const (
	DefaultThresholdHours  = 12
	DefaultPollInterval    = time.Minute
	DefaultTurnMessage     = "Your Game is ready for the next turn pretenders!"
	DefaultReminderMessage = "The turn is almost up and some nations still have not submitted!"
)

// ReminderPolicy decides what is sent and when a reminder fires.
type ReminderPolicy struct {
	ThresholdHours  float64
	ReminderMessage string
	// one is picked at random for every status change
	TurnMessages []string
}

func DefaultPolicy() ReminderPolicy {
	return ReminderPolicy{
		ThresholdHours:  DefaultThresholdHours,
		ReminderMessage: DefaultReminderMessage,
	}
}

// ShouldRemind reports whether hoursLeft is inside the reminder window.
// zero means "on submission" and never triggers.
func (p ReminderPolicy) ShouldRemind(hoursLeft float64) bool {
	return hoursLeft > 0 && hoursLeft <= p.ThresholdHours
}

func (p ReminderPolicy) PickTurnMessage(rng Rand) string {
	if len(p.TurnMessages) == 0 {
		return DefaultTurnMessage
	}
	return p.TurnMessages[rng.Intn(len(p.TurnMessages))]
}

func (p ReminderPolicy) clone() ReminderPolicy {
	p.TurnMessages = append([]string(nil), p.TurnMessages...)
	return p
}

type frandSource struct{}

func (frandSource) Intn(n int) int {
	return frand.Intn(n)
}

// SharedPolicy is the process wide ReminderPolicy, read by every watch and
// changed through the Service.
type SharedPolicy struct {
	mu     sync.RWMutex
	policy ReminderPolicy
}

func NewSharedPolicy(policy ReminderPolicy) *SharedPolicy {
	return &SharedPolicy{policy: policy.clone()}
}

func (s *SharedPolicy) Get() ReminderPolicy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.policy.clone()
}

func (s *SharedPolicy) Replace(policy ReminderPolicy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policy = policy.clone()
}

// ValidateThreshold accepts any finite amount of hours that is not negative.
func ValidateThreshold(hours float64) error {
	if math.IsNaN(hours) || math.IsInf(hours, 0) {
		return fmt.Errorf("reminder threshold must be a finite number, got %v", hours)
	}
	if hours < 0 {
		return fmt.Errorf("reminder threshold must not be negative, got %v", hours)
	}
	return nil
}

func (s *SharedPolicy) SetThreshold(hours float64) error {
	err := ValidateThreshold(hours)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policy.ThresholdHours = hours
	return nil
}

func (s *SharedPolicy) SetReminderMessage(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("reminder message must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policy.ReminderMessage = text
	return nil
}

func (s *SharedPolicy) AddTurnMessage(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("turn message must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policy.TurnMessages = append(s.policy.TurnMessages, text)
	return nil
}
