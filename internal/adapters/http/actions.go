package http

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/aretw0/todos/internal/onboarding"
	"github.com/aretw0/todos/internal/todo"
	"github.com/aretw0/todos/internal/todos"
	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
)

// ErrUnknownAction is returned for an action type no reducer understands.
var ErrUnknownAction = errors.New("unknown action type")

// ErrInvalidPayload is returned when a payload does not fit its action type.
var ErrInvalidPayload = errors.New("invalid action payload")

// ActionRequest is the body of the dispatch endpoints. Type is the action
// name as reported in logs and metrics, e.g. "select_filter" or
// "todo/checkbox_toggled".
type ActionRequest struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

// todoPayload addresses one todo for "todo/..." actions.
type todoPayload struct {
	ID   uuid.UUID `mapstructure:"id"`
	Text string    `mapstructure:"text"`
}

// DecodeTodosAction turns a request into a todos action.
func DecodeTodosAction(req ActionRequest) (todos.Action, error) {
	switch req.Type {
	case "add_todo":
		return todos.AddTodo{}, decodePayload(req.Payload, nil)
	case "clear_completed":
		return todos.ClearCompleted{}, decodePayload(req.Payload, nil)
	case "delete_all":
		return todos.DeleteAll{}, decodePayload(req.Payload, nil)
	case "sort_completed":
		return todos.SortCompleted{}, decodePayload(req.Payload, nil)

	case "select_filter":
		var a todos.SelectFilter
		if err := decodePayload(req.Payload, &a); err != nil {
			return nil, err
		}
		if !a.Filter.Valid() {
			return nil, fmt.Errorf("%w: filter %q", ErrInvalidPayload, a.Filter)
		}
		return a, nil

	case "set_edit_mode":
		var a todos.SetEditMode
		if err := decodePayload(req.Payload, &a); err != nil {
			return nil, err
		}
		if !a.Mode.Valid() {
			return nil, fmt.Errorf("%w: mode %q", ErrInvalidPayload, a.Mode)
		}
		return a, nil

	case "delete":
		var a todos.Delete
		if err := decodePayload(req.Payload, &a); err != nil {
			return nil, err
		}
		return a, nil

	case "move":
		var a todos.Move
		if err := decodePayload(req.Payload, &a); err != nil {
			return nil, err
		}
		return a, nil
	}

	if name, ok := strings.CutPrefix(req.Type, "todo/"); ok {
		return decodeTodoAction(name, req.Payload)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAction, req.Type)
}

func decodeTodoAction(name string, payload map[string]any) (todos.Action, error) {
	var p todoPayload
	if err := decodePayload(payload, &p); err != nil {
		return nil, err
	}
	if p.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing id", ErrInvalidPayload)
	}

	var action todo.Action
	switch name {
	case "checkbox_toggled":
		action = todo.CheckBoxToggled{}
	case "text_field_changed":
		action = todo.TextFieldChanged{Text: p.Text}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, "todo/"+name)
	}
	return todos.TodoAction{ID: p.ID, Action: action}, nil
}

// DecodeOnboardingAction turns a request into an onboarding action. Todos
// actions are addressed with a "todos/" prefix.
func DecodeOnboardingAction(req ActionRequest) (onboarding.Action, error) {
	switch req.Type {
	case "previous":
		return onboarding.Previous{}, decodePayload(req.Payload, nil)
	case "next":
		return onboarding.Next{}, decodePayload(req.Payload, nil)
	case "skip":
		return onboarding.Skip{}, decodePayload(req.Payload, nil)
	}

	name, ok := strings.CutPrefix(req.Type, "todos/")
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, req.Type)
	}
	inner, err := DecodeTodosAction(ActionRequest{Type: name, Payload: req.Payload})
	if err != nil {
		return nil, err
	}
	return onboarding.TodosAction{Action: inner}, nil
}

// decodePayload decodes payload into out. A nil out accepts only an empty payload.
func decodePayload(payload map[string]any, out any) error {
	if out == nil {
		if len(payload) > 0 {
			return fmt.Errorf("%w: action takes no payload", ErrInvalidPayload)
		}
		return nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      out,
		ErrorUnused: true,
		DecodeHook:  mapstructure.ComposeDecodeHookFunc(stringToUUIDHookFunc(), wholeNumberHookFunc()),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(payload); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

// wholeNumberHookFunc keeps JSON numbers bound for int fields from being
// truncated: 1.7 is rejected rather than read as position 1.
func wholeNumberHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if t.Kind() != reflect.Int || (f.Kind() != reflect.Float64 && f.Kind() != reflect.Float32) {
			return data, nil
		}
		n := reflect.ValueOf(data).Float()
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return nil, fmt.Errorf("%v is not a whole number", n)
		}
		return int(n), nil
	}
}

func stringToUUIDHookFunc() mapstructure.DecodeHookFuncType {
	target := reflect.TypeOf(uuid.UUID{})
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String || t != target {
			return data, nil
		}
		return uuid.Parse(reflect.ValueOf(data).String())
	}
}
