package service

// Outcome — итог одной отправки формы.
type Outcome int

const (
	// Invalid — поля не прошли проверку, сеть не вызывалась.
	Invalid Outcome = iota
	// PersistFailed — транзакция не сохранена.
	PersistFailed
	// UploadFailed — транзакция сохранена, вложения нет.
	UploadFailed
	// Committed — транзакция и вложения сохранены.
	Committed
)

func (o Outcome) String() string {
	switch o {
	case Invalid:
		return "invalid"
	case PersistFailed:
		return "persist_failed"
	case UploadFailed:
		return "upload_failed"
	case Committed:
		return "committed"
	default:
		return "unknown"
	}
}

// Decision — что делать с локальным состоянием формы после фазы.
type Decision struct {
	KeepStaged      bool // новые файлы остаются для повтора
	KeepDeletions   bool // пометки на удаление остаются для повтора
	RunDeletions    bool // выполнять фазу удаления
	ReleasePreviews bool // освободить превью-ссылки
}

// Reconcile решает судьбу локального состояния по итогу отправки.
// Откат уже сохранённой транзакции не выполняется никогда; освобождение превью
// и очистка набора происходят только при полном успехе.
func Reconcile(o Outcome) Decision {
	if o == Committed {
		return Decision{RunDeletions: true, ReleasePreviews: true}
	}
	return Decision{KeepStaged: true, KeepDeletions: true}
}
