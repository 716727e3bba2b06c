package properties

import "testing"

func TestPrice_Display(t *testing.T) {
	cases := map[int64]string{
		0:       "£0",
		950:     "£950",
		1500:    "£1,500",
		450000:  "£450,000",
		1250000: "£1,250,000",
	}
	for amount, want := range cases {
		got := Price{Amount: amount}.Display()
		if got != want {
			t.Errorf("Display(%d) = %q, want %q", amount, got, want)
		}
	}
}

func TestAddress_Formats(t *testing.T) {
	a := Address{Line1: "12 King Street", City: "Manchester", Postcode: "M2 4LQ"}
	if a.Summary() != "12 King Street, Manchester" {
		t.Errorf("unexpected summary %q", a.Summary())
	}
	if a.Full() != "12 King Street, Manchester, M2 4LQ" {
		t.Errorf("unexpected full address %q", a.Full())
	}
}

func TestCreatePropertyRequest_Validate(t *testing.T) {
	valid := CreatePropertyRequest{
		ExternalRef: "RR-1001",
		Title:       "Two-bed flat",
		Description: "Bright two-bed flat near the station",
		Address:     Address{Line1: "12 King Street", City: "Manchester", Postcode: "M2 4LQ"},
		Type:        "flat",
		Bedrooms:    2,
		PriceAmount: 275000,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	badType := valid
	badType.Type = "castle"
	if err := badType.Validate(); err != ErrInvalidType {
		t.Errorf("expected ErrInvalidType, got %v", err)
	}

	noRef := valid
	noRef.ExternalRef = ""
	if err := noRef.Validate(); err != ErrMissingExternalRef {
		t.Errorf("expected ErrMissingExternalRef, got %v", err)
	}

	negPrice := valid
	negPrice.PriceAmount = -1
	if err := negPrice.Validate(); err != ErrInvalidPrice {
		t.Errorf("expected ErrInvalidPrice, got %v", err)
	}

	tooManyBeds := valid
	tooManyBeds.Bedrooms = 21
	if err := tooManyBeds.Validate(); err != ErrInvalidBedrooms {
		t.Errorf("expected ErrInvalidBedrooms, got %v", err)
	}
}
