package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Grant:
		o.printGrant(v)
	case Profile:
		o.printProfile(v)
	case SessionState:
		o.printSessionState(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Grant response type (matches API)
type Grant struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
	Pseudo string `json:"pseudo"`
}

// Profile response type
type Profile struct {
	UserID  string `json:"userId"`
	Pseudo  string `json:"pseudo"`
	Email   string `json:"email,omitempty"`
	IsGuest bool   `json:"isGuest"`
}

// SessionState is the composite session snapshot
type SessionState struct {
	GameKind string        `json:"gameKind"`
	Code     string        `json:"code"`
	Step     int           `json:"step"`
	Players  []PlayerState `json:"players"`
}

// PlayerState is one player's slice of a session snapshot
type PlayerState struct {
	PublicID string            `json:"publicId"`
	Pseudo   string            `json:"pseudo"`
	Question string            `json:"question"`
	Answers  map[string]string `json:"answers"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printGrant(g Grant) {
	fmt.Printf("Logged in as %s (%s)\n", g.Pseudo, g.UserID)
	fmt.Println("Token saved")
}

func (o *Output) printProfile(p Profile) {
	fmt.Printf("User:   %s\n", p.UserID)
	fmt.Printf("Pseudo: %s\n", p.Pseudo)
	if p.Email != "" {
		fmt.Printf("Email:  %s\n", p.Email)
	}
	if p.IsGuest {
		fmt.Println("Guest account")
	}
}

func (o *Output) printSessionState(s SessionState) {
	fmt.Printf("Session %s/%s\n", s.GameKind, s.Code)
	fmt.Printf("Step: %s\n", stepName(s.Step))
	fmt.Printf("Players (%d):\n", len(s.Players))
	for _, p := range s.Players {
		question := p.Question
		if question == "" {
			question = "(no question yet)"
		}
		fmt.Printf("  %s  %-12s %s\n", p.PublicID, p.Pseudo, question)
		for _, target := range sortedKeys(p.Answers) {
			fmt.Printf("    -> %s: %s\n", target, p.Answers[target])
		}
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}

func stepName(step int) string {
	switch step {
	case 0:
		return "lobby"
	case 1:
		return "answering"
	case 2:
		return "results"
	default:
		return fmt.Sprintf("unknown (%d)", step)
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// truncate shortens a string for single-line display
func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
