package notification

import (
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
	KindWarning Kind = "warning"
)

// Toast is the event pushed to the browser.
type Toast struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Kind       Kind      `json:"kind"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	LifetimeMS int64     `json:"life"`
	CreatedAt  time.Time `json:"created_at"`
}

// DefaultTitle is used when the caller passes no title.
func (k Kind) DefaultTitle() string {
	switch k {
	case KindSuccess:
		return "Success"
	case KindError:
		return "Error"
	case KindWarning:
		return "Warning"
	default:
		return "Info"
	}
}

// Lifetime is how long the client keeps the toast on screen.
func (k Kind) Lifetime() time.Duration {
	switch k {
	case KindError:
		return 5 * time.Second
	case KindWarning:
		return 4 * time.Second
	default:
		return 3 * time.Second
	}
}

func (k Kind) valid() bool {
	switch k {
	case KindSuccess, KindError, KindInfo, KindWarning:
		return true
	}
	return false
}

func NewToast(kind Kind, message, title string) Toast {
	if !kind.valid() {
		kind = KindInfo
	}
	if title == "" {
		title = kind.DefaultTitle()
	}
	return Toast{
		ID:         uuid.NewString(),
		Type:       "toast",
		Kind:       kind,
		Title:      title,
		Message:    message,
		LifetimeMS: kind.Lifetime().Milliseconds(),
		CreatedAt:  time.Now().UTC(),
	}
}
