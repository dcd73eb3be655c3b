package tags

import (
	"testing"

	"opsboard/pkg/model"
	"opsboard/pkg/sheets"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture() []model.Ticket {
	return []model.Ticket{
		{Key: "101", Asunto: "Factura duplicada"},
		{Key: "102", Asunto: "Factura sin CAE"},
		{Key: "103", Asunto: "Login"},
		{Key: "104", Asunto: "Otro"},
	}
}

// apply patches tickets the way a successful write would.
func apply(s model.Schema, tickets []model.Ticket, updates []sheets.Update) []model.Ticket {
	out := append([]model.Ticket(nil), tickets...)
	for _, u := range updates {
		for i := range out {
			if out[i].Key != u.Key {
				continue
			}
			for col, v := range u.Set {
				switch col {
				case s.Label:
					out[i].Label = v
				case s.LabelOwner:
					out[i].LabelOwner = model.IsTruthy(v)
				case s.LabelColor:
					out[i].LabelColor = v
				}
			}
		}
	}
	return out
}

func TestCreateOwner(t *testing.T) {
	s := model.AbiertosSchema
	updates, err := CreateOwner(s, fixture(), "101", " Facturación ", "Verde Oscuro")
	require.NoError(t, err)

	assert.Equal(t, []sheets.Update{{Key: "101", Set: map[string]string{
		"Etiqueta Madre": "Sí",
		"Etiqueta":       "Facturación",
		"Etiqueta Color": "verde-oscuro",
	}}}, updates)
}

func TestCreateOwner_UnknownColorFallsBack(t *testing.T) {
	updates, err := CreateOwner(model.AbiertosSchema, fixture(), "101", "X", "fucsia")
	require.NoError(t, err)
	assert.Equal(t, DefaultColor, updates[0].Set["Etiqueta Color"])
}

func TestCreateOwner_SecondOwnerRejected(t *testing.T) {
	s := model.AbiertosSchema
	tickets := fixture()
	u, err := CreateOwner(s, tickets, "101", "Facturación", "rosa")
	require.NoError(t, err)
	tickets = apply(s, tickets, u)

	_, err = CreateOwner(s, tickets, "102", "Facturación", "naranja")
	assert.ErrorIs(t, err, ErrTagOwned)

	_, err = CreateOwner(s, tickets, "101", "Facturación", "naranja")
	assert.NoError(t, err)
}

func TestOwnerRowCannotTakeAnotherLabel(t *testing.T) {
	s := model.AbiertosSchema
	tickets := fixture()
	u, err := CreateOwner(s, tickets, "101", "Facturación", "rosa")
	require.NoError(t, err)
	tickets = apply(s, tickets, u)
	u, err = CreateOwner(s, tickets, "102", "Login", "naranja")
	require.NoError(t, err)
	tickets = apply(s, tickets, u)
	u, err = Assign(s, tickets, "103", "Login")
	require.NoError(t, err)
	tickets = apply(s, tickets, u)

	tests := []struct {
		name string
		run  func() ([]sheets.Update, error)
	}{
		{"assign", func() ([]sheets.Update, error) { return Assign(s, tickets, "102", "Facturación") }},
		{"create", func() ([]sheets.Update, error) { return CreateOwner(s, tickets, "102", "Renombrada", "") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updates, err := tt.run()
			assert.ErrorIs(t, err, ErrTagOwned)
			assert.Nil(t, updates)
		})
	}

	assert.Len(t, ownersOf(tickets, "Facturación"), 1)
	assert.Len(t, ownersOf(tickets, "Login"), 1)

	// an owner may still restate its own label
	_, err = Assign(s, tickets, "102", "Login")
	assert.NoError(t, err)
	_, err = CreateOwner(s, tickets, "102", "Login", "violeta")
	assert.NoError(t, err)
}

func TestCreateOwner_Errors(t *testing.T) {
	_, err := CreateOwner(model.AbiertosSchema, fixture(), "101", "  ", "")
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = CreateOwner(model.AbiertosSchema, fixture(), "999", "A", "")
	assert.ErrorIs(t, err, ErrNoRow)

	_, err = CreateOwner(model.N3Schema, fixture(), "101", "A", "")
	assert.ErrorIs(t, err, ErrNoColumns)
}

func TestRemoveOwner_Cascades(t *testing.T) {
	s := model.AbiertosSchema
	tickets := fixture()
	u, _ := CreateOwner(s, tickets, "101", "Facturación", "rosa")
	tickets = apply(s, tickets, u)
	u, err := Assign(s, tickets, "102", "Facturación")
	require.NoError(t, err)
	tickets = apply(s, tickets, u)
	u, _ = CreateOwner(s, tickets, "103", "Login", "naranja")
	tickets = apply(s, tickets, u)

	updates, err := RemoveOwner(s, tickets, "101")
	require.NoError(t, err)
	require.Len(t, updates, 2)
	tickets = apply(s, tickets, updates)

	for _, tk := range tickets {
		assert.NotEqual(t, "Facturación", tk.Label, tk.Key)
	}
	assert.False(t, tickets[0].LabelOwner)
	assert.Equal(t, "Login", tickets[2].Label)
	assert.Empty(t, Owners(tickets)[1:])
	assert.Equal(t, "Login", Owners(tickets)[0].Name)
}

func TestRemoveOwner_NotOwner(t *testing.T) {
	_, err := RemoveOwner(model.AbiertosSchema, fixture(), "104")
	assert.ErrorIs(t, err, ErrTagNotOwned)
}

func TestAssign(t *testing.T) {
	s := model.AbiertosSchema
	tickets := fixture()

	_, err := Assign(s, tickets, "102", "Facturación")
	assert.ErrorIs(t, err, ErrTagNotOwned)

	tickets[0].Label, tickets[0].LabelOwner = "Facturación", true
	tickets[3].Label, tickets[3].LabelOwner = "Facturación", true
	_, err = Assign(s, tickets, "102", "Facturación")
	assert.ErrorIs(t, err, ErrTagOwned)

	tickets[3].Label, tickets[3].LabelOwner = "", false
	u, err := Assign(s, tickets, "102", "Facturación")
	require.NoError(t, err)
	assert.Equal(t, []sheets.Update{{Key: "102", Set: map[string]string{"Etiqueta": "Facturación"}}}, u)
}

func TestClear(t *testing.T) {
	s := model.AbiertosSchema
	tickets := fixture()
	tickets[0].Label, tickets[0].LabelOwner = "Facturación", true
	tickets[1].Label = "Facturación"

	u, err := Clear(s, tickets, "102")
	require.NoError(t, err)
	assert.Equal(t, []sheets.Update{{Key: "102", Set: map[string]string{"Etiqueta": ""}}}, u)

	u, err = Clear(s, tickets, "101")
	require.NoError(t, err)
	assert.Len(t, u, 2)
}

func TestStyleFor(t *testing.T) {
	owners := []Label{{Name: "Facturación", Color: "naranja"}}
	assert.Equal(t, Palette["naranja"], StyleFor(owners, "Facturación"))

	// "ab" sums to 195, 195 % 5 == 0
	assert.Equal(t, Palette["violeta"], StyleFor(nil, "ab"))
}

func TestGroups(t *testing.T) {
	tickets := fixture()
	tickets[0].Label, tickets[0].LabelOwner, tickets[0].LabelColor = "Facturación", true, "rosa"
	tickets[1].Label = "Facturación"
	tickets[2].Label = "Login"

	groups := Groups(tickets)
	require.Len(t, groups, 2)
	assert.Equal(t, "Facturación", groups[0].Name)
	assert.Equal(t, 2, groups[0].Count)
	assert.Equal(t, Palette["rosa"], groups[0].Style)
	assert.Equal(t, []LabelItem{{Key: "101", Asunto: "Factura duplicada"}, {Key: "102", Asunto: "Factura sin CAE"}}, groups[0].Items)
	assert.Equal(t, "Login", groups[1].Name)
}
