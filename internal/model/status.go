package model

import "fmt"

// Status описывает статус заказа, присылаемый сервисом заказов.
type Status int

const (
	StatusPending Status = iota
	StatusAccepted
	StatusInProgress
	StatusDelivering
	StatusDeliver
	StatusDelivered
	StatusCompleted
	StatusCancelled
	StatusRejected

	statusCount
)

// Level описывает шаг индикатора прогресса заказа.
type Level int

const (
	LevelSent      Level = 0
	LevelPreparing Level = 1
	LevelRiding    Level = 2
	LevelDone      Level = 3
	// LevelCancelled обозначает терминальную отмену и не участвует в шкале прогресса.
	LevelCancelled Level = -1
)

// Phase разделяет заказы на активные и историю.
type Phase int

const (
	PhaseActive Phase = iota
	PhaseDelivered
	PhaseFailed
)

type statusInfo struct {
	name  string
	level Level
	label string
	phase Phase
}

var statusTable = [...]statusInfo{
	StatusPending:    {name: "PENDING", level: LevelSent, label: "Waiting", phase: PhaseActive},
	StatusAccepted:   {name: "ACCEPTED", level: LevelPreparing, label: "Preparing", phase: PhaseActive},
	StatusInProgress: {name: "IN_PROGRESS", level: LevelPreparing, label: "Preparing", phase: PhaseActive},
	StatusDelivering: {name: "DELIVERING", level: LevelRiding, label: "On the way", phase: PhaseActive},
	StatusDeliver:    {name: "DELIVER", level: LevelRiding, label: "On the way", phase: PhaseActive},
	StatusDelivered:  {name: "DELIVERED", level: LevelDone, label: "Delivered", phase: PhaseDelivered},
	StatusCompleted:  {name: "COMPLETED", level: LevelDone, label: "Delivered", phase: PhaseDelivered},
	StatusCancelled:  {name: "CANCELLED", level: LevelCancelled, label: "Cancelled", phase: PhaseFailed},
	StatusRejected:   {name: "REJECTED", level: LevelCancelled, label: "Cancelled", phase: PhaseFailed},
}

// Таблица обязана покрывать все статусы: при расхождении длины пакет не скомпилируется.
var (
	_ [len(statusTable) - int(statusCount)]struct{}
	_ [int(statusCount) - len(statusTable)]struct{}
)

// AllStatuses возвращает все статусы в порядке объявления.
func AllStatuses() []Status {
	res := make([]Status, 0, statusCount)
	for s := StatusPending; s < statusCount; s++ {
		res = append(res, s)
	}
	return res
}

// ParseStatus преобразует строковое значение статуса из API.
func ParseStatus(v string) (Status, error) {
	for s := StatusPending; s < statusCount; s++ {
		if statusTable[s].name == v {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown order status %q", v)
}

func (s Status) valid() bool {
	return s >= StatusPending && s < statusCount
}

func (s Status) String() string {
	if !s.valid() {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusTable[s].name
}

// Level возвращает шаг индикатора прогресса для статуса.
func (s Status) Level() Level {
	if !s.valid() {
		return LevelSent
	}
	return statusTable[s].level
}

// Label возвращает отображаемое название статуса.
func (s Status) Label() string {
	if !s.valid() {
		return s.String()
	}
	return statusTable[s].label
}

// Phase возвращает раздел списка, к которому относится статус.
func (s Status) Phase() Phase {
	if !s.valid() {
		return PhaseActive
	}
	return statusTable[s].phase
}

// IsTerminal сообщает, что заказ завершён и больше не отслеживается.
func (s Status) IsTerminal() bool {
	return s.Phase() != PhaseActive
}

// IsDelivering сообщает, что заказ находится у курьера.
func (s Status) IsDelivering() bool {
	return s == StatusDelivering || s == StatusDeliver
}

// MarshalText реализует encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	if !s.valid() {
		return nil, fmt.Errorf("invalid order status %d", int(s))
	}
	return []byte(statusTable[s].name), nil
}

// UnmarshalText реализует encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
