package triggers

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	ErrInvalidEvent   = errors.New("invalid trigger event")
	ErrUnknownTrigger = errors.New("unknown trigger")
)

// Trigger names one handler.
type Trigger string

const (
	UsersCreate        Trigger = "users.create"
	UsersDelete        Trigger = "users.delete"
	ProjectsCreate     Trigger = "projects.create"
	ProjectsDelete     Trigger = "projects.delete"
	ContributorsCreate Trigger = "contributors.create"
	ContributorsDelete Trigger = "contributors.delete"
)

// AllTriggers lists every routable trigger.
var AllTriggers = []Trigger{
	UsersCreate, UsersDelete,
	ProjectsCreate, ProjectsDelete,
	ContributorsCreate, ContributorsDelete,
}

func ParseTrigger(name string) (Trigger, error) {
	for _, t := range AllTriggers {
		if string(t) == name {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTrigger, name)
}

// Envelope is the change notification delivered by the hosting infrastructure.
type Envelope struct {
	EventID    string         `json:"eventId"`
	CreateTime *time.Time     `json:"createTime,omitempty"`
	Params     Params         `json:"params"`
	Auth       *AuthContext   `json:"auth,omitempty"`
	Value      map[string]any `json:"value,omitempty"`
}

// Params are the path parameters of the triggering document or identity.
type Params struct {
	ProjectID string `json:"projectId,omitempty"`
	UserID    string `json:"userId,omitempty"`
	UID       string `json:"uid,omitempty"`
}

// AuthContext is the identity of the client whose write caused the event.
type AuthContext struct {
	UID   string `json:"uid,omitempty"`
	Token string `json:"token,omitempty"`
}

var reservedID = regexp.MustCompile(`^__.*__$`)

// documentID accepts a single Firestore document id. "." and ".." would resolve to
// a different document, and __name__ ids are reserved by Firestore.
var documentID = validation.By(func(value interface{}) error {
	id, _ := value.(string)
	switch {
	case id == "":
		return nil
	case strings.Contains(id, "/"):
		return errors.New("must be a single path segment")
	case id == "." || id == "..":
		return errors.New("must not be a relative path segment")
	case reservedID.MatchString(id):
		return errors.New("must not be a reserved id")
	}
	return nil
})

// Validate checks the envelope carries what the trigger's handler needs.
func (e Envelope) Validate(t Trigger) error {
	if err := validation.ValidateStruct(&e,
		validation.Field(&e.EventID, validation.Required),
	); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if err := e.Params.validateFor(t); err != nil {
		return fmt.Errorf("%w: params: %v", ErrInvalidEvent, err)
	}
	return nil
}

func (p Params) validateFor(t Trigger) error {
	switch t {
	case UsersCreate, UsersDelete:
		return validation.ValidateStruct(&p,
			validation.Field(&p.UID, validation.Required, documentID),
		)
	case ProjectsCreate, ProjectsDelete:
		return validation.ValidateStruct(&p,
			validation.Field(&p.ProjectID, validation.Required, documentID),
		)
	case ContributorsCreate, ContributorsDelete:
		return validation.ValidateStruct(&p,
			validation.Field(&p.ProjectID, validation.Required, documentID),
			validation.Field(&p.UserID, validation.Required, documentID),
		)
	}
	return fmt.Errorf("%w: %q", ErrUnknownTrigger, t)
}
