package events

type EventType string

const (
	EventTypeConcert    EventType = "concert"
	EventTypeWorkshop   EventType = "workshop"
	EventTypeConference EventType = "conference"
	EventTypeFestival   EventType = "festival"
	EventTypeSport      EventType = "sport"
	EventTypeOther      EventType = "other"
)

func (t EventType) IsValid() bool {
	switch t {
	case EventTypeConcert, EventTypeWorkshop, EventTypeConference,
		EventTypeFestival, EventTypeSport, EventTypeOther:
		return true
	}
	return false
}

func (t EventType) String() string {
	return string(t)
}

// AllEventTypes lists every type in display order
func AllEventTypes() []EventType {
	return []EventType{
		EventTypeConcert, EventTypeWorkshop, EventTypeConference,
		EventTypeFestival, EventTypeSport, EventTypeOther,
	}
}
