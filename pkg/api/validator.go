package api

import "errors"

// Validator - интерфейс, который могут реализовать DTO
type Validator interface {
	Validate() error
}

func (m ClientMessage) Validate() error {
	switch m.Event {
	case EventPlayerAction:
		if len(m.Data) == 0 {
			return errors.New("playerAction requires data")
		}
	case EventRequestState:
	case "":
		return errors.New("event is required")
	default:
		return errors.New("unknown event " + m.Event)
	}
	return nil
}
