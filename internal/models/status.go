package models

// Status - этап канбан-воронки.
type Status struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	SortOrder int    `json:"sort_order"`
}

// Stage - известный системе этап воронки.
// Этапы опознаются по каноническому имени, идентификаторы в базе не фиксированы.
type Stage int

const (
	StageNew Stage = iota + 1
	StageOnCall
	StageAwaitingMaster
	StageInProgress
	StageRescheduled
	StageCompleted
)

var stageNames = map[Stage]string{
	StageNew:            "Новый",
	StageOnCall:         "На созвоне",
	StageAwaitingMaster: "Ожидает мастера",
	StageInProgress:     "В работе",
	StageRescheduled:    "Перенесён",
	StageCompleted:      "Завершён",
}

// Name возвращает каноническое имя этапа.
func (s Stage) Name() string {
	return stageNames[s]
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

// Stages возвращает известные этапы в порядке воронки.
func Stages() []Stage {
	return []Stage{StageNew, StageOnCall, StageAwaitingMaster, StageInProgress, StageRescheduled, StageCompleted}
}

