// Package artifact holds the immutable record a pipeline stage produces.
package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// StageOutput is one stage's generated report section. It is produced once
// per stage per run and never modified afterwards.
type StageOutput struct {
	ID         string    `json:"id"`
	StageID    string    `json:"stage_id"`
	Title      string    `json:"title"`
	Text       string    `json:"text"`
	Provider   string    `json:"provider"`
	Model      string    `json:"model"`
	Tokens     int       `json:"tokens,omitempty"`
	ProducedAt time.Time `json:"produced_at"`
	Hash       string    `json:"hash"`
}

// New creates a StageOutput with computed hash.
func New(stageID, title, text, provider, model string, producedAt time.Time) *StageOutput {
	o := &StageOutput{
		ID:         uuid.NewString(),
		StageID:    stageID,
		Title:      title,
		Text:       text,
		Provider:   provider,
		Model:      model,
		ProducedAt: producedAt.UTC(),
	}
	o.Hash = o.computeHash()
	return o
}

// WithTokens returns a copy carrying the token count reported by the provider.
func (o *StageOutput) WithTokens(n int) *StageOutput {
	c := *o
	c.Tokens = n
	return &c
}

// Verify reports whether the text still matches the recorded hash.
func (o *StageOutput) Verify() bool {
	return o.Hash == o.computeHash()
}

func (o *StageOutput) computeHash() string {
	h := sha256.New()
	h.Write([]byte(o.StageID))
	h.Write([]byte(o.Text))
	h.Write([]byte(o.Provider))
	h.Write([]byte(o.Model))
	return hex.EncodeToString(h.Sum(nil))[:16]
}
