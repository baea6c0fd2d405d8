package domain

import (
	"errors"
	"testing"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		input    string
		expected ActionType
	}{
		{"move_order", ActionMoveOrder},
		{"MOVE_ORDER", ActionMoveOrder},
		{"reveal_orders", ActionRevealOrders},
		{"Reveal_Orders", ActionRevealOrders},
		{"spoil_orders", ActionUnknown},
		{"", ActionUnknown},
	}

	for _, tt := range tests {
		result := ParseAction(tt.input)
		if result != tt.expected {
			t.Errorf("ParseAction(%q) = %v, want %v", tt.input, result, tt.expected)
		}
	}
}

func TestActionType_String(t *testing.T) {
	tests := []struct {
		action   ActionType
		expected string
	}{
		{ActionMoveOrder, "move_order"},
		{ActionRevealOrders, "reveal_orders"},
		{ActionUnknown, "unknown"},
	}

	for _, tt := range tests {
		if got := tt.action.String(); got != tt.expected {
			t.Errorf("ActionType(%d).String() = %q, want %q", tt.action, got, tt.expected)
		}
	}
}

func TestRevealOrdersPayload_Validate(t *testing.T) {
	tests := []struct {
		name    string
		payload RevealOrdersPayload
		want    error
	}{
		{"warehouse without scope", RevealOrdersPayload{Layer: "warehouse"}, nil},
		{"warehouse ignores scope", RevealOrdersPayload{Layer: "warehouse", NeighborhoodID: "neighborhood-0"}, nil},
		{"store with scope", RevealOrdersPayload{Layer: "store", NeighborhoodID: "neighborhood-1"}, nil},
		{"store without scope", RevealOrdersPayload{Layer: "store"}, ErrMissingScope},
		{"household without scope", RevealOrdersPayload{Layer: "household"}, ErrMissingScope},
		{"depot layer", RevealOrdersPayload{Layer: "depot"}, ErrInvalidLayer},
		{"empty layer", RevealOrdersPayload{}, ErrInvalidLayer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.payload.Validate()
			if tt.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("Validate() = %v, want %v", err, tt.want)
			}
			if !IsValidation(err) {
				t.Errorf("expected ValidationError, got %T", err)
			}
		})
	}
}

func TestMoveOrderPayload_Validate(t *testing.T) {
	if err := (MoveOrderPayload{OrderID: "order-1", TargetEntityID: "store-2"}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (MoveOrderPayload{TargetEntityID: "store-2"}).Validate(); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing orderId: got %v, want NotFound", err)
	}
	if err := (MoveOrderPayload{OrderID: "order-1"}).Validate(); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing targetEntityId: got %v, want NotFound", err)
	}
}

func TestValidationError_KindName(t *testing.T) {
	err := MissingScope("no scope")
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if ve.KindName() != "MissingScope" {
		t.Errorf("KindName() = %q, want MissingScope", ve.KindName())
	}
	if err.Error() != "no scope" {
		t.Errorf("Error() = %q", err.Error())
	}
}
