package users

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is the per-person aggregate root. Identity is the channel address (the
// WhatsApp phone number); CaseID is the human-readable reference quoted in
// every conversation and never changes once assigned.
type User struct {
	ID                uuid.UUID
	ChannelAddress    string
	DisplayName       string
	Locale            string
	CaseID            string
	RealQuestionCount int
	CreatedAt         time.Time
}

// NewCaseID generates a case reference like "LC-3F2A91BC": the configured
// prefix plus 8 uppercase hex characters.
func NewCaseID(prefix string) (string, error) {
	if strings.TrimSpace(prefix) == "" {
		prefix = "LC"
	}
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("users: generate case id: %w", err)
	}
	return fmt.Sprintf("%s-%s", prefix, strings.ToUpper(hex.EncodeToString(buf))), nil
}
