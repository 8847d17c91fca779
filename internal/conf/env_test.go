package conf

import "testing"

func TestValidateEnvURLRejectsMissingHost(t *testing.T) {
	if err := validateEnvURL("not-a-url"); err == nil {
		t.Fatal("expected error for URL without scheme/host")
	}
}

func TestValidateEnvURLAcceptsValidURL(t *testing.T) {
	if err := validateEnvURL("tcp://localhost:1883"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}
