package pickup

import "github.com/recycleit/receiver-portal/internal/domain/model"

// FieldSet — набор полей и возможностей модального окна заявки.
type FieldSet struct {
	// AlternateContact — показывать альтернативный контактный номер
	AlternateContact bool
	// SpecialInstructions — показывать особые инструкции
	SpecialInstructions bool
	// AllowEdit — разрешён режим редактирования с повторной загрузкой
	AllowEdit bool
}

// ProofView — состояние секций заметок и подтверждения в модальном окне.
type ProofView struct {
	// EditMode — режим редактирования действует (запрошен и разрешён)
	EditMode bool
	// NotesEditable — заметки показываются полем ввода
	NotesEditable bool
	// ShowProofImage — подтверждение показывается изображением
	ShowProofImage bool
	// FileInputDisabled — поле выбора файла заблокировано
	FileInputDisabled bool
	// ShowSubmit — показывать кнопку отправки подтверждения
	ShowSubmit bool
	// Reupload — отправка заменит уже загруженное подтверждение
	Reupload bool
}

// ProofView вычисляет состояние модального окна для заявки.
// Режим редактирования учитывается только при AllowEdit.
func (f FieldSet) ProofView(req model.PickupRequest, editMode bool) ProofView {
	edit := editMode && f.AllowEdit
	terminal := IsTerminalStatus(req.Status)
	locked := terminal && !edit

	v := ProofView{
		EditMode:      edit,
		NotesEditable: !locked,
	}

	if locked && HasProof(req) {
		v.ShowProofImage = true
		return v
	}

	v.FileInputDisabled = locked
	switch {
	case !HasProof(req):
		v.ShowSubmit = true
	case edit:
		v.ShowSubmit = true
		v.Reupload = true
	}
	return v
}
