package agents

import (
	"strings"
	"testing"
)

func TestCreateAgentRequest_Validate(t *testing.T) {
	valid := CreateAgentRequest{CompanyName: "Crown & Keys", Email: "hello@crownkeys.co.uk", Phone: "02071234567"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	missingName := valid
	missingName.CompanyName = "  "
	if err := missingName.Validate(); err != ErrMissingCompanyName {
		t.Errorf("expected ErrMissingCompanyName, got %v", err)
	}

	badEmail := valid
	badEmail.Email = "not-an-email"
	if err := badEmail.Validate(); err != ErrInvalidEmail {
		t.Errorf("expected ErrInvalidEmail, got %v", err)
	}

	missingPhone := valid
	missingPhone.Phone = ""
	if err := missingPhone.Validate(); err != ErrMissingPhone {
		t.Errorf("expected ErrMissingPhone, got %v", err)
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Crown & Keys Estates": "crown-keys-estates",
		"Smith's Lettings":     "smiths-lettings",
		"  Plain  ":            "plain",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewAPIKey(t *testing.T) {
	key := NewAPIKey()
	if !strings.HasPrefix(key, "rr_") {
		t.Fatalf("expected rr_ prefix, got %q", key)
	}
	if len(key) != 3+64 {
		t.Fatalf("expected 67-char key, got %d", len(key))
	}
	if key == NewAPIKey() {
		t.Fatal("two generated keys should differ")
	}
}

func TestAgent_Gates(t *testing.T) {
	a := &Agent{Subscription: Subscription{Status: SubscriptionTrial, ConversationsUsed: 3, ConversationLimit: 10}}
	if !a.CanAccess() {
		t.Error("trial subscription should have access")
	}
	if a.OverQuota() {
		t.Error("under-limit tenant should not be over quota")
	}

	a.Subscription.Status = SubscriptionPaused
	if a.CanAccess() {
		t.Error("paused subscription should be denied")
	}

	a.Subscription.ConversationsUsed = 10
	if !a.OverQuota() {
		t.Error("used == limit should be over quota")
	}

	unlimited := &Agent{Subscription: Subscription{Status: SubscriptionActive, ConversationsUsed: 999, ConversationLimit: 0}}
	if unlimited.OverQuota() {
		t.Error("zero limit means unmetered")
	}
}
