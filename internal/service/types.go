// Package service defines the backend-agnostic interface for task operations.
package service

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// PlaceholderPrefix marks ids generated locally for tasks the tracker
	// has not created yet.
	PlaceholderPrefix = "NEW-"

	// DeployOwner is the owner value that makes a committed task eligible
	// for the update request. Compared case-insensitively.
	DeployOwner = "deploy"
)

// Stages accepted by the tracker.
const (
	StageToDo       = "TO DO"
	StageInProgress = "IN PROGRESS"
	StageDone       = "DONE"
)

// Stages lists the stage values in display order.
var Stages = []string{StageToDo, StageInProgress, StageDone}

// ErrUnknownField is returned when a field name does not name an editable field.
var ErrUnknownField = errors.New("unknown field")

// State tells whether a task exists in the tracker.
type State int

const (
	// Pending tasks only exist locally and carry a placeholder id.
	Pending State = iota
	// Committed tasks carry an id issued by the tracker.
	Committed
)

func (s State) String() string {
	if s == Committed {
		return "committed"
	}
	return "pending"
}

// ParseState parses the output of State.String.
func ParseState(s string) (State, error) {
	switch s {
	case "pending":
		return Pending, nil
	case "committed":
		return Committed, nil
	}
	return Pending, fmt.Errorf("invalid task state: %q", s)
}

// StateOf classifies an id: empty or placeholder-prefixed ids are pending.
func StateOf(id string) State {
	if id == "" || strings.HasPrefix(id, PlaceholderPrefix) {
		return Pending
	}
	return Committed
}

// Task is one tracked change. JSON names follow the backend's wire format.
type Task struct {
	ID            string `json:"ID_Jira"`
	Description   string `json:"Actividades"`
	Stage         string `json:"Estado_Jira"`
	ChangeRef     string `json:"CHG"`
	Status        string `json:"Status"`
	Actionable    string `json:"Accionable"`
	Owner         string `json:"Responsable"`
	StartDate     string `json:"Fecha_inicio"`
	EndDate       string `json:"Fecha_termino"`
	Service       string `json:"Servicio"`
	DeployState   string `json:"Estado_despliegues"`
	Weeks         string `json:"Semanas"`
	FilesToModify string `json:"Archivos_a_modificar"`
	TechImpact    string `json:"Impacto_Tecnologico"`
	Complexity    string `json:"Complejidad"`
	Priority      string `json:"Prioridad"`
	Release       string `json:"Liberacion"`

	// State is local bookkeeping and never sent to the backend.
	State State `json:"-"`
}

// IsPending reports whether the task still waits to be created in the tracker.
func (t Task) IsPending() bool {
	return t.State == Pending
}

// IsDeployOwned reports whether the owner is the deploy sentinel.
func (t Task) IsDeployOwned() bool {
	return strings.EqualFold(t.Owner, DeployOwner)
}

// CreatedTask maps a placeholder id to the id the tracker issued for it.
type CreatedTask struct {
	TempID string `json:"temp_id"`
	JiraID string `json:"jira_id"`
}

// Field names an editable task attribute.
type Field struct {
	// Key is the short name used on the command line.
	Key string
	// Wire is the backend's JSON name, also used as the grid column header.
	Wire string
	// Date fields hold ISO dates.
	Date bool
}

// Fields lists the editable fields in grid column order. ID is not editable.
var Fields = []Field{
	{Key: "description", Wire: "Actividades"},
	{Key: "stage", Wire: "Estado_Jira"},
	{Key: "chg", Wire: "CHG"},
	{Key: "status", Wire: "Status"},
	{Key: "actionable", Wire: "Accionable"},
	{Key: "owner", Wire: "Responsable"},
	{Key: "start", Wire: "Fecha_inicio", Date: true},
	{Key: "end", Wire: "Fecha_termino", Date: true},
	{Key: "service", Wire: "Servicio"},
	{Key: "deploy-state", Wire: "Estado_despliegues"},
	{Key: "weeks", Wire: "Semanas"},
	{Key: "files", Wire: "Archivos_a_modificar"},
	{Key: "impact", Wire: "Impacto_Tecnologico"},
	{Key: "complexity", Wire: "Complejidad"},
	{Key: "priority", Wire: "Prioridad"},
	{Key: "release", Wire: "Liberacion"},
}

// LookupField finds a field by key or wire name, ignoring case.
func LookupField(name string) (Field, error) {
	name = strings.TrimSpace(name)
	for _, f := range Fields {
		if strings.EqualFold(f.Key, name) || strings.EqualFold(f.Wire, name) {
			return f, nil
		}
	}
	return Field{}, fmt.Errorf("%w: %s", ErrUnknownField, name)
}

// ptr returns the address of the task attribute behind f.
func (t *Task) ptr(f Field) *string {
	switch f.Wire {
	case "Actividades":
		return &t.Description
	case "Estado_Jira":
		return &t.Stage
	case "CHG":
		return &t.ChangeRef
	case "Status":
		return &t.Status
	case "Accionable":
		return &t.Actionable
	case "Responsable":
		return &t.Owner
	case "Fecha_inicio":
		return &t.StartDate
	case "Fecha_termino":
		return &t.EndDate
	case "Servicio":
		return &t.Service
	case "Estado_despliegues":
		return &t.DeployState
	case "Semanas":
		return &t.Weeks
	case "Archivos_a_modificar":
		return &t.FilesToModify
	case "Impacto_Tecnologico":
		return &t.TechImpact
	case "Complejidad":
		return &t.Complexity
	case "Prioridad":
		return &t.Priority
	case "Liberacion":
		return &t.Release
	}
	return nil
}

// Get returns the value of the named field.
func (t Task) Get(name string) (string, error) {
	f, err := LookupField(name)
	if err != nil {
		return "", err
	}
	return *t.ptr(f), nil
}

// Set replaces the value of the named field.
func (t *Task) Set(name, value string) error {
	f, err := LookupField(name)
	if err != nil {
		return err
	}
	*t.ptr(f) = value
	return nil
}
