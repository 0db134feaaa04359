package pickup

import (
	"testing"

	"github.com/recycleit/receiver-portal/internal/domain/model"
)

func TestProofView(t *testing.T) {
	pending := model.PickupRequest{Status: model.StatusPending}
	pendingWithProof := model.PickupRequest{Status: model.StatusPending, CollectionProof: "data:image/png;base64,AAA"}
	received := model.PickupRequest{Status: model.StatusReceived, CollectionProof: "data:image/png;base64,AAA"}
	receivedNoProof := model.PickupRequest{Status: model.StatusReceived}

	immutable := FieldSet{}
	editable := FieldSet{AllowEdit: true}

	tests := []struct {
		name   string
		fields FieldSet
		req    model.PickupRequest
		edit   bool
		want   ProofView
	}{
		{
			name:   "новая заявка",
			fields: immutable,
			req:    pending,
			want:   ProofView{NotesEditable: true, ShowSubmit: true},
		},
		{
			name:   "принята, без редактирования",
			fields: immutable,
			req:    received,
			want:   ProofView{ShowProofImage: true},
		},
		{
			name:   "принята, режим редактирования запрещён настройкой",
			fields: immutable,
			req:    received,
			edit:   true,
			want:   ProofView{ShowProofImage: true},
		},
		{
			name:   "принята, режим редактирования",
			fields: editable,
			req:    received,
			edit:   true,
			want:   ProofView{EditMode: true, NotesEditable: true, ShowSubmit: true, Reupload: true},
		},
		{
			name:   "принята без подтверждения",
			fields: immutable,
			req:    receivedNoProof,
			want:   ProofView{FileInputDisabled: true, ShowSubmit: true},
		},
		{
			name:   "не принята, подтверждение есть",
			fields: immutable,
			req:    pendingWithProof,
			want:   ProofView{NotesEditable: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fields.ProofView(tt.req, tt.edit); got != tt.want {
				t.Errorf("ProofView() = %+v, хотели %+v", got, tt.want)
			}
		})
	}
}

func TestProofView_TerminalNeverEditable(t *testing.T) {
	for _, status := range []string{model.StatusCollected, model.StatusReceived, model.StatusReceivedByRecycler} {
		for _, fields := range []FieldSet{{}, {AllowEdit: true}, {AlternateContact: true, SpecialInstructions: true}} {
			req := model.PickupRequest{Status: status, CollectionProof: "data:image/png;base64,AAA"}

			// Повторный рендер даёт тот же результат
			for range 3 {
				v := fields.ProofView(req, false)
				if v.NotesEditable {
					t.Errorf("status=%q: заметки редактируемы вне режима редактирования", status)
				}
				if !v.ShowProofImage {
					t.Errorf("status=%q: поле выбора файла вместо изображения", status)
				}
			}
		}
	}
}
